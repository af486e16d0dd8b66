package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/render/template"
)

// DefaultContextKey is the variable templates iterate over.
const DefaultContextKey = "drivers"

// Option customises RenderAll.
type Option func(*config)

type config struct {
	contextKey string
	fileMode   os.FileMode
}

// WithContextKey binds the sequence under a different variable name.
func WithContextKey(key string) Option {
	return func(cfg *config) {
		if key = strings.TrimSpace(key); key != "" {
			cfg.contextKey = key
		}
	}
}

// WithFileMode sets the permissions of written outputs.
func WithFileMode(mode os.FileMode) Option {
	return func(cfg *config) {
		if mode != 0 {
			cfg.fileMode = mode
		}
	}
}

// OutputName strips the template's own extension: "foo.h.jinja" → "foo.h".
// Names without an extension are rejected because the output would replace
// the template.
func OutputName(templateName string) (string, error) {
	base := filepath.Base(templateName)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return "", fmt.Errorf("template name %q has no extension to strip", templateName)
	}
	return strings.TrimSuffix(templateName, ext), nil
}

type output struct {
	template string
	path     string
	body     string
}

// RenderAll renders every template with the same sequence and writes each
// result into outputDir, returning the written paths in template order.
// All templates render before the first file is written, so a failing
// template leaves the output directory untouched.
func RenderAll(ctx context.Context, engine template.Renderer, outputDir string, templateNames []string, seq driver.Sequence, options ...Option) ([]string, error) {
	if engine == nil {
		return nil, errors.New("render: engine is required")
	}
	cfg := &config{contextKey: DefaultContextKey, fileMode: 0o644}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	log := slogctx.FromCtx(ctx)

	outputs := make([]output, 0, len(templateNames))
	for _, name := range templateNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outName, err := OutputName(name)
		if err != nil {
			return nil, &TemplateError{Template: name, Err: err}
		}

		data := map[string]any{cfg.contextKey: seq.TemplateContext()}
		body, err := engine.RenderTemplate(name, data)
		if err != nil {
			return nil, &TemplateError{Template: name, Err: err}
		}
		outputs = append(outputs, output{
			template: name,
			path:     filepath.Join(outputDir, outName),
			body:     body,
		})
		log.Debug("template rendered", slog.String("template", name), slog.Int("bytes", len(body)))
	}

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if err := os.MkdirAll(filepath.Dir(out.path), 0o755); err != nil {
			return written, &TemplateError{Template: out.template, Output: out.path, Err: err}
		}
		if err := os.WriteFile(out.path, []byte(out.body), cfg.fileMode); err != nil {
			return written, &TemplateError{Template: out.template, Output: out.path, Err: err}
		}
		log.Debug("output written", slog.String("path", out.path))
		written = append(written, out.path)
	}
	return written, nil
}
