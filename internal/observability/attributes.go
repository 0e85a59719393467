// Package observability exposes spool loop metrics through OpenTelemetry and a
// Prometheus scrape handler.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrOutcome = "outcome"
	attrSuccess = "success"
	attrMachine = "machine"
)

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(attrOutcome, outcome)
}

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(attrSuccess, success)
}

func machineAttr(machine string) attribute.KeyValue {
	return attribute.String(attrMachine, machine)
}

// WithOutcome returns a metric option with the outcome attribute.
func WithOutcome(outcome string) metric.MeasurementOption {
	return metric.WithAttributes(outcomeAttr(outcome))
}
