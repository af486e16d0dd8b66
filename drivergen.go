// Package drivergen generates the PSA crypto driver wrappers from validated
// driver descriptions. It re-exports the orchestrator entry points for
// callers that want a single import.
package drivergen

import (
	"context"

	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/orchestrator"
)

// Request describes one generator run.
type Request = orchestrator.Request

// Result reports the outputs of a successful run.
type Result = orchestrator.Result

// DefaultTemplates returns the wrapper templates rendered by default.
func DefaultTemplates() []string {
	return append([]string(nil), orchestrator.DefaultTemplates...)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate validates and merges the drivers listed in the manifest and
// renders every template. It is the simplest entry point for callers that
// want the files written.
func Generate(ctx context.Context, req Request, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Generate(ctx, req)
}

// Merge validates and merges the drivers without rendering.
func Merge(ctx context.Context, req Request, options ...orchestrator.Option) (driver.Sequence, error) {
	return orchestrator.New(options...).Merge(ctx, req)
}
