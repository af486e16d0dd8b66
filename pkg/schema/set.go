package schema

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/source"
)

const (
	// TransparentFile and OpaqueFile are the fixed schema file names.
	TransparentFile = "driver_transparent_schema.json"
	OpaqueFile      = "driver_opaque_schema.json"
)

// TreeDir is the schema directory relative to the project root.
var TreeDir = filepath.Join("scripts", "data_files", "driver_jsons")

//go:embed builtin/*.json
var builtinSchemas embed.FS

// BuiltinFS exposes the embedded reference schemas, keyed by TransparentFile
// and OpaqueFile.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtinSchemas, "builtin")
	if err != nil {
		return builtinSchemas
	}
	return sub
}

// Sources names the document backing each driver class.
type Sources struct {
	Transparent source.Source
	Opaque      source.Source
}

// TreeSources returns the fixed schema locations under a project root.
func TreeSources(root string) Sources {
	dir := filepath.Join(root, TreeDir)
	return Sources{
		Transparent: source.FromFile(filepath.Join(dir, TransparentFile)),
		Opaque:      source.FromFile(filepath.Join(dir, OpaqueFile)),
	}
}

// BuiltinSources returns fs sources that resolve against BuiltinFS.
func BuiltinSources() Sources {
	return Sources{
		Transparent: source.FromFS(TransparentFile),
		Opaque:      source.FromFS(OpaqueFile),
	}
}

// For returns the source configured for kind.
func (s Sources) For(kind driver.Kind) source.Source {
	switch kind {
	case driver.KindTransparent:
		return s.Transparent
	case driver.KindOpaque:
		return s.Opaque
	default:
		return nil
	}
}

// Schema is one compiled driver-class schema.
type Schema struct {
	kind     driver.Kind
	document Document
	compiled *gojsonschema.Schema
}

// Compile parses a schema document for kind.
func Compile(kind driver.Kind, doc Document) (*Schema, error) {
	if !kind.Known() {
		return nil, fmt.Errorf("schema: unknown driver kind %q", kind)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc.Raw()))
	if err != nil {
		return nil, err
	}
	return &Schema{kind: kind, document: doc, compiled: compiled}, nil
}

// Kind returns the driver class this schema constrains.
func (s *Schema) Kind() driver.Kind {
	return s.kind
}

// Location returns where the schema was loaded from.
func (s *Schema) Location() string {
	return s.document.Location()
}

// Document returns the source document.
func (s *Schema) Document() Document {
	return s.document
}

// Check validates a raw JSON instance and returns its violations sorted by
// field then rule. An empty result means the instance is valid.
func (s *Schema) Check(raw []byte) []driver.Issue {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []driver.Issue{{Field: "(root)", Rule: "document", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]driver.Issue, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, driver.Issue{
			Field:   re.Field(),
			Rule:    re.Type(),
			Message: re.Description(),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Field != issues[j].Field {
			return issues[i].Field < issues[j].Field
		}
		return issues[i].Rule < issues[j].Rule
	})
	return issues
}

// Set is the closed mapping from driver class to schema.
type Set struct {
	transparent *Schema
	opaque      *Schema
}

// NewSet assembles a Set from already compiled schemas.
func NewSet(transparent, opaque *Schema) (*Set, error) {
	if transparent == nil || transparent.Kind() != driver.KindTransparent {
		return nil, errors.New("schema: transparent schema is required")
	}
	if opaque == nil || opaque.Kind() != driver.KindOpaque {
		return nil, errors.New("schema: opaque schema is required")
	}
	return &Set{transparent: transparent, opaque: opaque}, nil
}

// Lookup returns the schema for kind. Unknown kinds have no schema.
func (s *Set) Lookup(kind driver.Kind) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	switch kind {
	case driver.KindTransparent:
		return s.transparent, s.transparent != nil
	case driver.KindOpaque:
		return s.opaque, s.opaque != nil
	default:
		return nil, false
	}
}

// LoadSet reads and compiles both schemas. It returns a *LoadError for the
// first document that is missing, unparsable, or not a valid schema.
func LoadSet(ctx context.Context, loader source.Loader, sources Sources) (*Set, error) {
	if loader == nil {
		return nil, errors.New("schema: loader is required")
	}

	compiled := make(map[driver.Kind]*Schema, 2)
	for _, kind := range driver.Kinds() {
		src := sources.For(kind)
		if src == nil {
			return nil, &LoadError{Kind: kind, Err: errors.New("no source configured")}
		}

		raw, err := loader.Read(ctx, src)
		if err != nil {
			return nil, &LoadError{Kind: kind, Location: src.Location(), Err: err}
		}
		doc, err := NewDocument(src, raw)
		if err != nil {
			return nil, &LoadError{Kind: kind, Location: src.Location(), Err: err}
		}
		s, err := Compile(kind, doc)
		if err != nil {
			return nil, &LoadError{Kind: kind, Location: src.Location(), Err: err}
		}
		compiled[kind] = s
	}

	return NewSet(compiled[driver.KindTransparent], compiled[driver.KindOpaque])
}

// LoadError reports a schema document that could not be loaded.
type LoadError struct {
	Kind     driver.Kind
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("schema: load %s schema: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("schema: load %s schema %s: %v", e.Kind, e.Location, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
