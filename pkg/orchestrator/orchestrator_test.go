package orchestrator_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/orchestrator"
	"github.com/goliatone/go-drivergen/pkg/render"
	"github.com/goliatone/go-drivergen/pkg/render/template"
	"github.com/goliatone/go-drivergen/pkg/render/template/pongo"
	"github.com/goliatone/go-drivergen/pkg/schema"
	"github.com/goliatone/go-drivergen/pkg/testsupport"
)

func templateDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "templates"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	return dir
}

func newOrchestrator(options ...orchestrator.Option) (*orchestrator.Orchestrator, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	options = append([]orchestrator.Option{
		orchestrator.WithDiagnostics(schema.Diagnostics{Stdout: &stdout, Stderr: &stderr}),
	}, options...)
	return orchestrator.New(options...), &stdout, &stderr
}

func TestGenerate_Golden(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json", "b.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
		"b.json": testsupport.OpaqueSE,
	})
	orch, stdout, stderr := newOrchestrator()

	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Root:        root,
		TemplateDir: templateDir(t),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Fatalf("expected silent run, got stdout=%q stderr=%q", stdout.String(), stderr.String())
	}

	if diff := cmp.Diff([]string{"aes", "se"}, result.Prefixes); diff != "" {
		t.Fatalf("prefixes mismatch (-want +got):\n%s", diff)
	}
	outputDir := filepath.Join(root, testsupport.OutputDir)
	wantOutputs := []string{
		filepath.Join(outputDir, "psa_crypto_driver_wrappers.h"),
		filepath.Join(outputDir, "psa_crypto_driver_wrappers_no_static.c"),
	}
	if diff := cmp.Diff(wantOutputs, result.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}

	for _, path := range result.Outputs {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		golden := filepath.Join("testdata", filepath.Base(path)+".golden")
		if testsupport.WriteMaybeGolden(t, golden, got) {
			continue
		}
		want := testsupport.MustReadGoldenString(t, golden)
		if diff := testsupport.CompareGolden(want, string(got)); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", filepath.Base(path), diff)
		}
	}
}

func TestGenerate_TemplatesShareContext(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json", "b.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
		"b.json": testsupport.OpaqueSE,
	})

	seen := map[string][]any{}
	engine := template.RendererFunc(func(name string, data any) (string, error) {
		seen[name] = data.(map[string]any)["drivers"].([]any)
		return name, nil
	})
	orch, _, _ := newOrchestrator(orchestrator.WithEngineFactory(func(string) (template.Renderer, error) {
		return engine, nil
	}))

	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{Root: root}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(seen) != len(orchestrator.DefaultTemplates) {
		t.Fatalf("expected %d rendered templates, got %d", len(orchestrator.DefaultTemplates), len(seen))
	}
	first := seen[orchestrator.DefaultTemplates[0]]
	for _, name := range orchestrator.DefaultTemplates[1:] {
		if diff := cmp.Diff(first, seen[name]); diff != "" {
			t.Fatalf("context for %s differs (-first +got):\n%s", name, diff)
		}
	}
	if len(first) != 2 {
		t.Fatalf("expected two drivers, got %d", len(first))
	}
	for i, want := range []string{"aes", "se"} {
		if got := first[i].(map[string]any)["prefix"]; got != want {
			t.Fatalf("driver %d prefix = %v, want %s", i, got, want)
		}
	}
}

func TestGenerate_UnknownTypeWritesNothing(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json", "hw.json"}, map[string]string{
		"a.json":  testsupport.TransparentAES,
		"hw.json": testsupport.UnknownHardware,
	})
	orch, stdout, stderr := newOrchestrator()

	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Root:        root,
		TemplateDir: templateDir(t),
	})
	var unknown *driver.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTypeError, got %T: %v", err, err)
	}
	var loadErr *driver.LoadError
	if !errors.As(err, &loadErr) || !strings.HasSuffix(loadErr.Path, "hw.json") {
		t.Fatalf("expected LoadError naming hw.json, got %v", err)
	}

	for _, stream := range []string{stdout.String(), stderr.String()} {
		if !strings.Contains(stream, `"hardware"`) || !strings.Contains(stream, `"se"`) {
			t.Fatalf("diagnostic must name type and prefix, got %q", stream)
		}
	}
	if files := testsupport.ListFiles(t, filepath.Join(root, testsupport.OutputDir)); len(files) != 0 {
		t.Fatalf("expected no outputs, got %v", files)
	}
}

func TestGenerate_InvalidDescriptorWritesNothing(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json", "b.json", "broken.json"}, map[string]string{
		"a.json":      testsupport.TransparentAES,
		"b.json":      testsupport.OpaqueSE,
		"broken.json": testsupport.MissingCapabilities,
	})
	orch, _, _ := newOrchestrator()

	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Root:        root,
		TemplateDir: templateDir(t),
	})
	var validation *driver.SchemaValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected SchemaValidationError, got %T: %v", err, err)
	}
	if files := testsupport.ListFiles(t, filepath.Join(root, testsupport.OutputDir)); len(files) != 0 {
		t.Fatalf("expected no outputs, got %v", files)
	}
}

func TestGenerate_TemplateFailureWritesNothing(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
	})
	orch, _, _ := newOrchestrator(orchestrator.WithTemplates(
		"psa_crypto_driver_wrappers.h.jinja",
		"broken.h.jinja",
	))

	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Root:        root,
		TemplateDir: templateDir(t),
	})
	var tmplErr *render.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected TemplateError, got %T: %v", err, err)
	}
	if tmplErr.Template != "broken.h.jinja" {
		t.Fatalf("template = %q", tmplErr.Template)
	}
	if files := testsupport.ListFiles(t, filepath.Join(root, testsupport.OutputDir)); len(files) != 0 {
		t.Fatalf("expected no outputs, got %v", files)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"b.json", "a.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
		"b.json": testsupport.OpaqueSE,
	})
	orch, _, _ := newOrchestrator()
	req := orchestrator.Request{Root: root, TemplateDir: templateDir(t)}

	read := func() map[string]string {
		out := map[string]string{}
		for _, name := range testsupport.ListFiles(t, filepath.Join(root, testsupport.OutputDir)) {
			raw, err := os.ReadFile(filepath.Join(root, testsupport.OutputDir, name))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			out[name] = string(raw)
		}
		return out
	}

	if _, err := orch.Generate(testsupport.Context(), req); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := read()
	result, err := orch.Generate(testsupport.Context(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(first, read()); diff != "" {
		t.Fatalf("outputs changed between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"se", "aes"}, result.Prefixes); diff != "" {
		t.Fatalf("manifest order not kept (-want +got):\n%s", diff)
	}
}

func TestMerge_BuiltinSchemas(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
	})
	if err := os.RemoveAll(filepath.Join(root, testsupport.JSONDir, schema.TransparentFile)); err != nil {
		t.Fatalf("remove schema: %v", err)
	}

	orch, _, _ := newOrchestrator()
	var loadErr *schema.LoadError
	if _, err := orch.Merge(testsupport.Context(), orchestrator.Request{Root: root}); !errors.As(err, &loadErr) {
		t.Fatalf("expected schema LoadError without builtin schemas, got %v", err)
	}

	orch, _, _ = newOrchestrator(orchestrator.WithBuiltinSchemas())
	seq, err := orch.Merge(testsupport.Context(), orchestrator.Request{Root: root})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if diff := cmp.Diff([]string{"aes"}, seq.Prefixes()); diff != "" {
		t.Fatalf("prefixes mismatch (-want +got):\n%s", diff)
	}
}

func TestRequest_RootRequired(t *testing.T) {
	orch, _, _ := newOrchestrator()
	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestGenerate_MissingTemplateDirectory(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
	})
	orch, _, _ := newOrchestrator()

	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Root:        root,
		TemplateDir: filepath.Join(root, "nope"),
	})
	var tmplErr *render.TemplateError
	if !errors.As(err, &tmplErr) {
		t.Fatalf("expected TemplateError, got %T: %v", err, err)
	}
	if tmplErr.Template != orchestrator.DefaultTemplates[0] {
		t.Fatalf("template = %q", tmplErr.Template)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("error must name the directory: %v", err)
	}
	if files := testsupport.ListFiles(t, filepath.Join(root, testsupport.OutputDir)); len(files) != 0 {
		t.Fatalf("expected no outputs, got %v", files)
	}
}

func TestGenerate_EngineOptionsAndFileMode(t *testing.T) {
	root := testsupport.DriverTree(t, []string{"a.json", "b.json"}, map[string]string{
		"a.json": testsupport.TransparentAES,
		"b.json": testsupport.OpaqueSE,
	})
	templates := filepath.Join(root, testsupport.TemplateDir)
	testsupport.WriteFiles(t, root, map[string]string{
		filepath.Join(testsupport.TemplateDir, "list.txt.jinja"): "{% for driver in drivers %}\n{{ driver.prefix }};{% endfor %}",
	})

	orch, _, _ := newOrchestrator(
		orchestrator.WithEngineOptions(pongo.WithTrimBlocks(true)),
		orchestrator.WithFileMode(0o600),
		orchestrator.WithTemplates("list.txt.jinja"),
	)
	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{Root: root, TemplateDir: templates})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	path := result.Outputs[0]
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "aes;se;" {
		t.Fatalf("output = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}
}
