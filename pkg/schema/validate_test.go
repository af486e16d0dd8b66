package schema_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/schema"
	"github.com/goliatone/go-drivergen/pkg/source"
)

func newValidator(t *testing.T) (*schema.Validator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	v := schema.NewValidator(loadTestSet(t), schema.Diagnostics{Stdout: &stdout, Stderr: &stderr})
	return v, &stdout, &stderr
}

func TestValidator_AcceptsValidDescriptors(t *testing.T) {
	v, stdout, stderr := newValidator(t)

	docs := []string{
		`{"prefix":"aes","type":"transparent","capabilities":[{"entry_points":["cipher_encrypt"],"fallback":true}]}`,
		`{"prefix":"se","type":"opaque","location":"0x7fffff","capabilities":[{"entry_points":["sign_hash"]}]}`,
		`{"prefix":"se2","type":"opaque","location":1,"capabilities":[]}`,
	}
	for _, doc := range docs {
		if err := v.Validate(driver.MustDecode("d.json", []byte(doc))); err != nil {
			t.Fatalf("validate %s: %v", doc, err)
		}
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Fatalf("valid descriptors must not report, got %q / %q", stdout.String(), stderr.String())
	}
}

func TestValidator_UnknownType(t *testing.T) {
	v, stdout, stderr := newValidator(t)

	err := v.Validate(driver.MustDecode("hw.json", []byte(`{"prefix":"se","type":"hardware"}`)))

	var unknown *driver.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	if unknown.Type != "hardware" || unknown.Prefix != "se" {
		t.Fatalf("unexpected error fields %+v", unknown)
	}
	if stdout.String() != stderr.String() {
		t.Fatalf("channels differ\nstdout: %q\nstderr: %q", stdout.String(), stderr.String())
	}
	for _, want := range []string{"hardware", "se"} {
		if !strings.Contains(stderr.String(), want) {
			t.Fatalf("diagnostic %q missing %q", stderr.String(), want)
		}
	}
}

func TestValidator_MissingType(t *testing.T) {
	v, _, _ := newValidator(t)

	err := v.Validate(driver.MustDecode("none.json", []byte(`{"prefix":"se","capabilities":[]}`)))
	var unknown *driver.UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
	if unknown.Type != "" {
		t.Fatalf("type = %q, want empty", unknown.Type)
	}
}

func TestValidator_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		rule string
	}{
		{
			name: "missing required field",
			doc:  `{"prefix":"aes","type":"transparent"}`,
			rule: "required",
		},
		{
			name: "wrong field type",
			doc:  `{"prefix":"aes","type":"transparent","capabilities":"all"}`,
			rule: "invalid_type",
		},
		{
			name: "wrong header condition type",
			doc:  `{"prefix":"se","type":"opaque","location":1,"capabilities":[],"mbedtls/h_condition":1}`,
			rule: "invalid_type",
		},
		{
			name: "opaque without location",
			doc:  `{"prefix":"se","type":"opaque","capabilities":[]}`,
			rule: "required",
		},
		{
			name: "unexpected capability property",
			doc:  `{"prefix":"aes","type":"transparent","capabilities":[{"entry_points":[],"bogus":1}]}`,
			rule: "additional_property_not_allowed",
		},
		{
			name: "prefix pattern",
			doc:  `{"prefix":"1aes","type":"transparent","capabilities":[]}`,
			rule: "pattern",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, stdout, stderr := newValidator(t)

			err := v.Validate(driver.MustDecode("d.json", []byte(tc.doc)))
			var invalid *driver.SchemaValidationError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected SchemaValidationError, got %v", err)
			}
			if !invalid.HasRule(tc.rule) {
				t.Fatalf("expected rule %q in %+v", tc.rule, invalid.Issues)
			}
			if invalid.Schema == "" {
				t.Fatalf("schema location missing")
			}
			if stdout.Len() == 0 || stdout.String() != stderr.String() {
				t.Fatalf("expected identical reports, got %q / %q", stdout.String(), stderr.String())
			}
		})
	}
}

func TestValidator_EnumMismatchOnType(t *testing.T) {
	set := loadTestSet(t)
	s, _ := set.Lookup(driver.KindOpaque)

	issues := s.Check([]byte(`{"prefix":"se","type":"transparent","location":1,"capabilities":[]}`))
	found := false
	for _, issue := range issues {
		if issue.Field == "type" && issue.Rule == "enum" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected enum violation on type, got %+v", issues)
	}
}

func TestDiagnostics_ReportSkipsNilStreams(t *testing.T) {
	var stderr bytes.Buffer
	schema.Diagnostics{Stderr: &stderr}.Report("boom\n")
	if stderr.String() != "boom\n" {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestValidator_EnumMismatchOnPayloadField(t *testing.T) {
	compile := func(kind driver.Kind, raw string) *schema.Schema {
		t.Helper()
		doc, err := schema.NewDocument(source.FromFile(string(kind)+".json"), []byte(raw))
		if err != nil {
			t.Fatalf("document: %v", err)
		}
		s, err := schema.Compile(kind, doc)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		return s
	}
	transparent := compile(driver.KindTransparent, `{
  "type": "object",
  "properties": {
    "type": {"enum": ["transparent"]},
    "fallback_mode": {"enum": ["a", "b"]}
  }
}`)
	opaque := compile(driver.KindOpaque, `{"type": "object"}`)
	set, err := schema.NewSet(transparent, opaque)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}

	var stdout, stderr bytes.Buffer
	v := schema.NewValidator(set, schema.Diagnostics{Stdout: &stdout, Stderr: &stderr})

	if err := v.Validate(driver.MustDecode("ok.json", []byte(`{"prefix":"aes","type":"transparent","fallback_mode":"b"}`))); err != nil {
		t.Fatalf("allowed value rejected: %v", err)
	}

	err = v.Validate(driver.MustDecode("bad.json", []byte(`{"prefix":"aes","type":"transparent","fallback_mode":"c"}`)))
	var validation *driver.SchemaValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected SchemaValidationError, got %T: %v", err, err)
	}
	if !validation.HasRule("enum") {
		t.Fatalf("expected enum rule, got %+v", validation.Issues)
	}
	if validation.Issues[0].Field != "fallback_mode" {
		t.Fatalf("field = %q", validation.Issues[0].Field)
	}
	if !strings.Contains(stderr.String(), "bad.json") || stdout.String() != stderr.String() {
		t.Fatalf("expected identical reports naming the file, got %q / %q", stdout.String(), stderr.String())
	}
}
