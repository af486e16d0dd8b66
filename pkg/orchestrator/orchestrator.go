package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	slogctx "github.com/veqryn/slog-context"

	"github.com/goliatone/go-drivergen/internal/fsload"
	"github.com/goliatone/go-drivergen/pkg/buildtree"
	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/manifest"
	"github.com/goliatone/go-drivergen/pkg/render"
	"github.com/goliatone/go-drivergen/pkg/render/template"
	"github.com/goliatone/go-drivergen/pkg/render/template/pongo"
	"github.com/goliatone/go-drivergen/pkg/schema"
	"github.com/goliatone/go-drivergen/pkg/source"
)

// DefaultTemplates lists the wrapper templates rendered when a run does not
// name its own.
var DefaultTemplates = []string{
	"psa_crypto_driver_wrappers.h.jinja",
	"psa_crypto_driver_wrappers_no_static.c.jinja",
}

// EngineFactory builds the template engine for a template directory.
type EngineFactory func(templateDir string) (template.Renderer, error)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the loader used for the manifest and descriptors.
func WithLoader(loader source.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithEngineFactory replaces the pongo2 engine.
func WithEngineFactory(factory EngineFactory) Option {
	return func(o *Orchestrator) {
		o.engines = factory
	}
}

// WithEngineOptions passes options to the default pongo2 engine. It has no
// effect together with WithEngineFactory.
func WithEngineOptions(options ...pongo.Option) Option {
	return func(o *Orchestrator) {
		o.engineOptions = append(o.engineOptions, options...)
	}
}

// WithFileMode sets the permissions of the generated files.
func WithFileMode(mode os.FileMode) Option {
	return func(o *Orchestrator) {
		o.fileMode = mode
	}
}

// WithTemplates overrides DefaultTemplates. Requests that name templates
// still take precedence.
func WithTemplates(names ...string) Option {
	return func(o *Orchestrator) {
		if len(names) == 0 {
			return
		}
		o.templates = append([]string(nil), names...)
	}
}

// WithContextKey sets the template variable holding the driver list.
func WithContextKey(key string) Option {
	return func(o *Orchestrator) {
		o.contextKey = key
	}
}

// WithDiagnostics sets the streams validation failures are reported on.
func WithDiagnostics(diag schema.Diagnostics) Option {
	return func(o *Orchestrator) {
		o.diag = &diag
	}
}

// WithSchemaSources reads the class schemas from sources through loader
// instead of from the project root. A nil loader falls back to the
// descriptor loader.
func WithSchemaSources(sources schema.Sources, loader source.Loader) Option {
	return func(o *Orchestrator) {
		o.schemaSources = &sources
		o.schemaLoader = loader
	}
}

// WithBuiltinSchemas validates against the schemas compiled into the binary.
func WithBuiltinSchemas() Option {
	return WithSchemaSources(schema.BuiltinSources(), fsload.New(schema.BuiltinFS()))
}

// Orchestrator runs the merge and render phases for a Request.
type Orchestrator struct {
	loader        source.Loader
	schemaLoader  source.Loader
	schemaSources *schema.Sources
	diag          *schema.Diagnostics
	engines       EngineFactory
	engineOptions []pongo.Option
	templates     []string
	contextKey    string
	fileMode      os.FileMode
}

// New constructs an Orchestrator applying any provided options over the
// on-disk loader, the pongo2 engine and DefaultTemplates.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		templates:  append([]string(nil), DefaultTemplates...),
		contextKey: render.DefaultContextKey,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.engines == nil {
		engineOptions := o.engineOptions
		o.engines = func(templateDir string) (template.Renderer, error) {
			return pongo.New(append([]pongo.Option{pongo.WithBaseDir(templateDir)}, engineOptions...)...)
		}
	}
	if o.loader == nil {
		o.loader = fsload.New(nil)
	}
	return o
}

// Request describes one generator run. Root is required; unset directories
// are derived from it with buildtree.Layout.
type Request struct {
	Root        string
	TemplateDir string
	JSONDir     string
	OutputDir   string

	// Manifest names the manifest file inside JSONDir. Defaults to
	// manifest.DefaultName.
	Manifest string

	// Templates overrides the configured template list for this run.
	Templates []string
}

// Result reports what a successful run produced.
type Result struct {
	Outputs  []string `json:"outputs"`
	Prefixes []string `json:"prefixes"`
}

func (r Request) resolve() (Request, error) {
	if r.Root == "" {
		return r, errors.New("orchestrator: root is required")
	}
	layout := buildtree.Layout{Root: r.Root}
	if r.TemplateDir == "" {
		r.TemplateDir = layout.TemplateDir()
	}
	if r.JSONDir == "" {
		r.JSONDir = layout.JSONDir()
	}
	if r.OutputDir == "" {
		r.OutputDir = layout.OutputDir()
	}
	if r.Manifest == "" {
		r.Manifest = manifest.DefaultName
	}
	return r, nil
}

// Merge runs the merge phase only and returns the validated sequence.
func (o *Orchestrator) Merge(ctx context.Context, req Request) (driver.Sequence, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	req, err := req.resolve()
	if err != nil {
		return nil, err
	}
	return o.merge(ctx, req)
}

func (o *Orchestrator) merge(ctx context.Context, req Request) (driver.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := []manifest.Option{manifest.WithLoader(o.loader)}
	if o.diag != nil {
		options = append(options, manifest.WithDiagnostics(*o.diag))
	}
	if o.schemaSources != nil {
		options = append(options, manifest.WithSchemaSources(*o.schemaSources))
		if o.schemaLoader != nil {
			options = append(options, manifest.WithSchemaLoader(o.schemaLoader))
		}
	}
	return manifest.MergeAll(ctx, req.Root, req.JSONDir, req.Manifest, options...)
}

// Generate merges the driver sequence and renders every template from it.
// Nothing is written unless every descriptor and every template succeeds.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	req, err := req.resolve()
	if err != nil {
		return Result{}, err
	}
	log := slogctx.FromCtx(ctx)

	seq, err := o.merge(ctx, req)
	if err != nil {
		return Result{}, err
	}

	templates := o.templates
	if len(req.Templates) > 0 {
		templates = req.Templates
	}

	engine, err := o.engines(req.TemplateDir)
	if err != nil {
		// without an engine no template can be read
		name := req.TemplateDir
		if len(templates) > 0 {
			name = templates[0]
		}
		return Result{}, &render.TemplateError{
			Template: name,
			Err:      fmt.Errorf("template directory %s: %w", req.TemplateDir, err),
		}
	}

	written, err := render.RenderAll(ctx, engine, req.OutputDir, templates, seq,
		render.WithContextKey(o.contextKey),
		render.WithFileMode(o.fileMode))
	if err != nil {
		return Result{}, err
	}

	log.Debug("generation complete",
		slog.String("output_dir", req.OutputDir),
		slog.Int("drivers", len(seq)),
		slog.Int("outputs", len(written)))
	return Result{Outputs: written, Prefixes: seq.Prefixes()}, nil
}
