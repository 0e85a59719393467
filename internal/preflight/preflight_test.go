package preflight

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"dropspool/internal/config"
	"dropspool/internal/spool"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckListenAddress(t *testing.T) {
	if result := CheckListenAddress("free", "127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected ephemeral port to be available: %s", result.Detail)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	if result := CheckListenAddress("busy", ln.Addr().String()); result.Passed {
		t.Fatal("expected busy address to fail")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SpoolRoot = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Spool.MachineName = "hostA"
	return &cfg
}

func TestRunAllPassesForCompleteLayout(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Layout().Ensure(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if results[0].Name != "Incoming directory" {
		t.Fatalf("unexpected first check %q", results[0].Name)
	}
	if err := Err(results); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRunAllReportsMissingLifecycleDirectory(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.Layout().Ensure(); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(cfg.Layout().OutDir()); err != nil {
		t.Fatal(err)
	}

	err := Err(RunAll(cfg))
	if !errors.Is(err, ErrFailed) || !errors.Is(err, spool.ErrLayout) {
		t.Fatalf("expected preflight layout error, got %v", err)
	}
}

func TestErrWithoutLayoutFailure(t *testing.T) {
	err := Err([]Result{{Name: "Log directory", Detail: "missing"}, {Name: "Incoming directory", Passed: true, Layout: true}})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if errors.Is(err, spool.ErrLayout) {
		t.Fatalf("log directory failure should not be a layout error: %v", err)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestCheckLayoutLabelsLifecycleDirectories(t *testing.T) {
	layout := spool.NewLayout(t.TempDir())
	if err := layout.Ensure(); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(layout.ResultsDir()); err != nil {
		t.Fatal(err)
	}

	results := CheckLayout(layout)
	want := []string{"Incoming directory", "Work directory", "Out directory", "Results directory"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, name := range want {
		if results[i].Name != name {
			t.Fatalf("result %d: expected %q, got %q", i, name, results[i].Name)
		}
	}
	if !results[0].Passed || results[3].Passed {
		t.Fatalf("unexpected pass states %+v", results)
	}
}

func TestErrClassifiesLayoutByFlagNotLabel(t *testing.T) {
	err := Err([]Result{{Name: "Drop box", Detail: "missing", Layout: true}})
	if !errors.Is(err, spool.ErrLayout) {
		t.Fatalf("expected layout error for flagged check, got %v", err)
	}
	err = Err([]Result{{Name: "Scratch directory", Detail: "missing"}})
	if errors.Is(err, spool.ErrLayout) {
		t.Fatalf("unflagged check should not be a layout error: %v", err)
	}

	layout := spool.NewLayout(t.TempDir())
	for _, r := range CheckLayout(layout) {
		if !r.Layout {
			t.Fatalf("lifecycle check %q not flagged as layout", r.Name)
		}
	}
}
