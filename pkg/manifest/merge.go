package manifest

import (
	"context"
	"errors"
	"log/slog"

	slogctx "github.com/veqryn/slog-context"

	"github.com/goliatone/go-drivergen/internal/fsload"
	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/schema"
	"github.com/goliatone/go-drivergen/pkg/source"
)

// LoadDescriptor reads, decodes and validates one descriptor. Every failure
// comes back as a *driver.LoadError whose cause is a *driver.ParseError,
// *driver.UnknownTypeError or *driver.SchemaValidationError.
func LoadDescriptor(ctx context.Context, loader source.Loader, validator *schema.Validator, src source.Source) (driver.Descriptor, error) {
	if src == nil {
		return driver.Descriptor{}, errors.New("manifest: descriptor source is nil")
	}
	path := src.Location()

	raw, err := loader.Read(ctx, src)
	if err != nil {
		return driver.Descriptor{}, &driver.LoadError{Path: path, Err: &driver.ParseError{Path: path, Err: err}}
	}

	desc, err := driver.Decode(path, raw)
	if err != nil {
		return driver.Descriptor{}, &driver.LoadError{Path: path, Err: err}
	}

	if err := validator.Validate(desc); err != nil {
		return driver.Descriptor{}, &driver.LoadError{Path: path, Err: err}
	}
	return desc, nil
}

// Option customises a Merger.
type Option func(*Merger)

// WithLoader sets the loader used for the manifest and descriptors.
func WithLoader(loader source.Loader) Option {
	return func(m *Merger) {
		m.loader = loader
	}
}

// WithSourceKind selects how directory and file names are resolved. Use
// source.KindFS together with a loader backed by an fs.FS.
func WithSourceKind(kind source.Kind) Option {
	return func(m *Merger) {
		m.kind = kind
	}
}

// WithSchemaSources overrides the schema locations derived from the root.
func WithSchemaSources(sources schema.Sources) Option {
	return func(m *Merger) {
		m.sources = &sources
	}
}

// WithSchemaLoader sets a dedicated loader for schema documents, e.g. one
// backed by schema.BuiltinFS.
func WithSchemaLoader(loader source.Loader) Option {
	return func(m *Merger) {
		m.schemaLoader = loader
	}
}

// WithDiagnostics sets the streams validation failures are reported on.
func WithDiagnostics(diag schema.Diagnostics) Option {
	return func(m *Merger) {
		m.diag = diag
	}
}

// Merger builds the validated driver sequence for one run.
type Merger struct {
	loader       source.Loader
	schemaLoader source.Loader
	sources      *schema.Sources
	diag         schema.Diagnostics
	kind         source.Kind
}

// NewMerger applies options over on-disk defaults that report validation
// failures on the process stdout and stderr.
func NewMerger(options ...Option) *Merger {
	m := &Merger{
		diag: schema.ProcessDiagnostics(),
		kind: source.KindFile,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.loader == nil {
		m.loader = fsload.New(nil)
	}
	if m.schemaLoader == nil {
		m.schemaLoader = m.loader
	}
	return m
}

// Merge loads the schemas for root, parses the manifest found in
// descriptorDir and loads every entry in listed order. No partial sequence
// is ever returned.
func (m *Merger) Merge(ctx context.Context, root, descriptorDir, manifestName string) (driver.Sequence, error) {
	log := slogctx.FromCtx(ctx)

	sources := schema.TreeSources(root)
	if m.sources != nil {
		sources = *m.sources
	}
	set, err := schema.LoadSet(ctx, m.schemaLoader, sources)
	if err != nil {
		return nil, err
	}
	validator := schema.NewValidator(set, m.diag)

	if manifestName == "" {
		manifestName = DefaultName
	}
	manifestSrc := source.Join(m.kind, descriptorDir, manifestName)
	raw, err := m.loader.Read(ctx, manifestSrc)
	if err != nil {
		return nil, &Error{Path: manifestSrc.Location(), Err: err}
	}
	list, err := Parse(manifestSrc.Location(), raw)
	if err != nil {
		return nil, err
	}
	log.Debug("manifest parsed", slog.String("manifest", list.Source), slog.Int("entries", len(list.Entries)))

	seq := make(driver.Sequence, 0, len(list.Entries))
	for _, name := range list.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		desc, err := LoadDescriptor(ctx, m.loader, validator, source.Join(m.kind, descriptorDir, name))
		if err != nil {
			return nil, err
		}
		log.Debug("driver loaded",
			slog.String("path", desc.Source()),
			slog.String("type", desc.Kind().String()),
			slog.String("prefix", desc.Prefix()))
		seq = append(seq, desc)
	}
	return seq, nil
}

// MergeAll is the one-call form of NewMerger(options...).Merge.
func MergeAll(ctx context.Context, root, descriptorDir, manifestName string, options ...Option) (driver.Sequence, error) {
	return NewMerger(options...).Merge(ctx, root, descriptorDir, manifestName)
}
