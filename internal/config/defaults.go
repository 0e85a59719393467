package config

const (
	defaultConfigPath           = "~/.config/dropspool/config.toml"
	projectConfigName           = "dropspool.toml"
	defaultSpoolRoot            = "~/Dropbox/job_processor"
	defaultLogDir               = "~/.local/share/dropspool/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultIdleMinSeconds       = 1.0
	defaultIdleMaxSeconds       = 6.0
	defaultShutdownGraceSeconds = 10
	defaultSingleInstance       = true
)

// Default returns a Config populated with dropspool defaults. MachineName is
// left empty and resolved from the environment or host name during load.
func Default() Config {
	return Config{
		Paths: Paths{
			SpoolRoot: defaultSpoolRoot,
			LogDir:    defaultLogDir,
		},
		Spool: Spool{
			IdleMinSeconds:       defaultIdleMinSeconds,
			IdleMaxSeconds:       defaultIdleMaxSeconds,
			SingleInstance:       defaultSingleInstance,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
