// Package config holds the generator settings shared by every command and
// decodes them from a viper instance fed by flags, DRIVERGEN_* environment
// variables and an optional drivergen.yaml file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mcuadros/go-defaults"
	"github.com/spf13/viper"

	"github.com/goliatone/go-drivergen/pkg/orchestrator"
	"github.com/goliatone/go-drivergen/pkg/render/template/pongo"
	"github.com/goliatone/go-drivergen/pkg/schema"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "DRIVERGEN"

// DefaultConfigName is the config file looked up in the config paths,
// without extension.
const DefaultConfigName = "drivergen"

// Schema modes.
const (
	SchemasTree    = "tree"
	SchemasBuiltin = "builtin"
)

// Options holds every setting of a generator run. Empty directories are
// derived from Root.
type Options struct {
	Root        string   `mapstructure:"root"`
	OutputDir   string   `mapstructure:"output-dir"`
	TemplateDir string   `mapstructure:"template-dir"`
	JSONDir     string   `mapstructure:"json-dir"`
	Manifest    string   `mapstructure:"manifest" default:"driverlist.json"`
	Templates   []string `mapstructure:"template"`
	ContextKey  string   `mapstructure:"context-key" default:"drivers"`
	Schemas     string   `mapstructure:"schemas" default:"tree"`
	LogFormat   string   `mapstructure:"log-format" default:"auto"`
	TrimBlocks  bool     `mapstructure:"trim-blocks"`
	FileMode    string   `mapstructure:"file-mode" default:"0644"`
}

// Defaults returns Options with every tag default applied.
func Defaults() Options {
	var opts Options
	defaults.SetDefaults(&opts)
	return opts
}

// NewViper returns an owned viper instance reading DRIVERGEN_* variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the named config file from the first path holding it. A
// missing file is not an error.
func ReadFile(v *viper.Viper, paths []string, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(name)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("config: read %s: %w", name, err)
	}
	return v.ConfigFileUsed(), nil
}

// FromViper decodes v into Options and fills unset fields from the tag
// defaults.
func FromViper(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("config: decode: %w", err)
	}
	defaults.SetDefaults(&opts)
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks the enumerated settings.
func (o Options) Validate() error {
	switch o.Schemas {
	case SchemasTree, SchemasBuiltin:
	default:
		return fmt.Errorf("config: schemas must be %q or %q, got %q", SchemasTree, SchemasBuiltin, o.Schemas)
	}
	switch o.LogFormat {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("config: log format must be auto, json or text, got %q", o.LogFormat)
	}
	if _, err := o.Mode(); err != nil {
		return err
	}
	return nil
}

// Mode parses FileMode as an octal permission.
func (o Options) Mode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(o.FileMode, 8, 32)
	if err != nil || mode == 0 || mode > 0o777 {
		return 0, fmt.Errorf("config: file mode must be an octal permission such as 0644, got %q", o.FileMode)
	}
	return os.FileMode(mode), nil
}

// Request converts the options into an orchestrator request.
func (o Options) Request() orchestrator.Request {
	return orchestrator.Request{
		Root:        o.Root,
		TemplateDir: o.TemplateDir,
		JSONDir:     o.JSONDir,
		OutputDir:   o.OutputDir,
		Manifest:    o.Manifest,
		Templates:   append([]string(nil), o.Templates...),
	}
}

// Orchestrator builds an orchestrator honouring the options, reporting
// validation failures on diag.
func (o Options) Orchestrator(diag schema.Diagnostics) *orchestrator.Orchestrator {
	options := []orchestrator.Option{
		orchestrator.WithDiagnostics(diag),
		orchestrator.WithContextKey(o.ContextKey),
		orchestrator.WithEngineOptions(pongo.WithTrimBlocks(o.TrimBlocks)),
	}
	if mode, err := o.Mode(); err == nil {
		options = append(options, orchestrator.WithFileMode(mode))
	}
	if o.Schemas == SchemasBuiltin {
		options = append(options, orchestrator.WithBuiltinSchemas())
	}
	return orchestrator.New(options...)
}

type contextKey struct{ name string }

var viperKey = contextKey{"viper"}

// ContextWithViper returns a context carrying v.
func ContextWithViper(ctx context.Context, v *viper.Viper) context.Context {
	return context.WithValue(ctx, viperKey, v)
}

// Viper returns the viper instance stored in ctx, or a fresh one when none
// was stored.
func Viper(ctx context.Context) *viper.Viper {
	if v, ok := ctx.Value(viperKey).(*viper.Viper); ok {
		return v
	}
	return NewViper()
}
