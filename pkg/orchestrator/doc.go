// Package orchestrator wires the manifest merger and the render pipeline into
// a single entry point. Callers describe a run with a Request; the
// orchestrator resolves unset directories from the project root, merges the
// validated driver sequence and renders every wrapper template from it.
package orchestrator
