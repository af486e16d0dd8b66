package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Descriptor is one validated-on-load driver description. The envelope fields
// are exposed through accessors; everything else stays in the decoded payload
// and is handed to templates as-is.
type Descriptor struct {
	kind     Kind
	declared string
	prefix   string
	source   string
	raw      []byte
	fields   map[string]any
}

// Decode parses a descriptor document. The root must be a JSON object. The
// declared type is captured verbatim so unknown classes can be reported
// without defaulting; Kind() is empty for those.
func Decode(source string, raw []byte) (Descriptor, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Descriptor{}, &ParseError{Path: source, Err: errors.New("document is empty")}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Descriptor{}, &ParseError{Path: source, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Descriptor{}, &ParseError{Path: source, Err: errors.New("unexpected data after top-level value")}
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return Descriptor{}, &ParseError{Path: source, Err: fmt.Errorf("root must be a JSON object, got %s", jsonKind(doc))}
	}
	normalizeNumbers(fields)

	declared := envelopeText(fields, "type")
	kind, _ := ParseKind(declared)

	return Descriptor{
		kind:     kind,
		declared: declared,
		prefix:   envelopeText(fields, "prefix"),
		source:   source,
		raw:      append([]byte(nil), raw...),
		fields:   fields,
	}, nil
}

// MustDecode panics if the payload cannot be decoded. Useful for tests.
func MustDecode(source string, raw []byte) Descriptor {
	desc, err := Decode(source, raw)
	if err != nil {
		panic(err)
	}
	return desc
}

// Kind returns the driver class, or the empty Kind when the declared type is
// missing or not one of Kinds().
func (d Descriptor) Kind() Kind {
	return d.kind
}

// DeclaredType returns the type exactly as written in the document.
func (d Descriptor) DeclaredType() string {
	return d.declared
}

// Prefix returns the namespacing token used in generated identifiers.
func (d Descriptor) Prefix() string {
	return d.prefix
}

// Source returns the location the descriptor was decoded from.
func (d Descriptor) Source() string {
	return d.source
}

// Raw returns a copy of the original document bytes.
func (d Descriptor) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Fields returns a deep copy of the decoded payload, envelope included.
func (d Descriptor) Fields() map[string]any {
	if d.fields == nil {
		return nil
	}
	return cloneValue(d.fields).(map[string]any)
}

// MarshalJSON encodes the payload, not the wrapper.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.fields)
}

// MarshalYAML encodes the payload for gopkg.in/yaml.v3.
func (d Descriptor) MarshalYAML() (any, error) {
	return d.Fields(), nil
}

// Sequence is the ordered, merged set of descriptors. Its order is the
// dispatch precedence of the generated code.
type Sequence []Descriptor

// TemplateContext returns the JSON-shaped view templates iterate over. Each
// call returns a fresh copy.
func (s Sequence) TemplateContext() []any {
	out := make([]any, 0, len(s))
	for _, desc := range s {
		out = append(out, desc.Fields())
	}
	return out
}

// Prefixes lists the driver prefixes in sequence order.
func (s Sequence) Prefixes() []string {
	out := make([]string, 0, len(s))
	for _, desc := range s {
		out = append(out, desc.Prefix())
	}
	return out
}

// Kinds lists the driver classes in sequence order.
func (s Sequence) Kinds() []Kind {
	out := make([]Kind, 0, len(s))
	for _, desc := range s {
		out = append(out, desc.Kind())
	}
	return out
}

func envelopeText(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeNumbers(item)
		}
		return v
	case []any:
		for idx, item := range v {
			v[idx] = normalizeNumbers(item)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if IsIntegerLiteral(v) {
			// exceeds int64; keep the literal instead of rounding it
			return v
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	default:
		return value
	}
}

// IsIntegerLiteral reports whether n is written without a fraction or an
// exponent.
func IsIntegerLiteral(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}
