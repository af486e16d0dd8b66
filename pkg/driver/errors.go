package driver

import (
	"fmt"
	"strings"
)

// ParseError reports a descriptor that could not be read or is not a JSON
// object.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse descriptor: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownTypeError reports a descriptor whose declared type has no schema.
// Type is empty when the document omits it.
type UnknownTypeError struct {
	Type   string
	Prefix string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown driver type %q for driver %q", e.Type, e.Prefix)
}

// Issue is a single schema violation.
type Issue struct {
	// Field is the dotted instance path, "(root)" for the document itself.
	Field string `json:"field"`
	// Rule names the violated keyword class (required, invalid_type, enum, ...).
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return i.Field + ": " + i.Message
}

// SchemaValidationError reports a descriptor that does not satisfy the schema
// of its class.
type SchemaValidationError struct {
	Descriptor Descriptor
	// Schema is the location of the schema document used.
	Schema string
	Issues []Issue
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("%s driver %q does not match schema %s: %s",
		e.Descriptor.Kind(), e.Descriptor.Prefix(), e.Schema, strings.Join(parts, "; "))
}

// HasRule reports whether any issue was raised by the given rule.
func (e *SchemaValidationError) HasRule(rule string) bool {
	for _, issue := range e.Issues {
		if issue.Rule == rule {
			return true
		}
	}
	return false
}

// LoadError adds the descriptor file path to a parse or validation failure.
// It is the error the merge phase surfaces.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load driver %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
