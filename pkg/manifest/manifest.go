// Package manifest reads the ordered driver list and merges the descriptors
// it names into one validated driver.Sequence.
//
// The manifest order is the dispatch precedence of the generated code, so
// entries are never sorted, deduplicated, or skipped, and the first failing
// descriptor aborts the whole merge.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultName is the manifest file name inside the descriptor directory.
const DefaultName = "driverlist.json"

// Manifest is the ordered list of descriptor file names.
type Manifest struct {
	Source  string
	Entries []string
}

// Parse decodes a JSON array of non-empty strings.
func Parse(src string, raw []byte) (Manifest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Manifest{}, &Error{Path: src, Err: errors.New("document is empty")}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, &Error{Path: src, Err: err}
	}
	items, ok := doc.([]any)
	if !ok {
		return Manifest{}, &Error{Path: src, Err: errors.New("expected a JSON array of file names")}
	}

	entries := make([]string, 0, len(items))
	for idx, item := range items {
		name, ok := item.(string)
		if !ok {
			return Manifest{}, &Error{Path: src, Err: fmt.Errorf("entry %d is %T, want string", idx, item)}
		}
		if name == "" {
			return Manifest{}, &Error{Path: src, Err: fmt.Errorf("entry %d is empty", idx)}
		}
		entries = append(entries, name)
	}

	return Manifest{Source: src, Entries: entries}, nil
}

// Error reports a manifest that could not be read or decoded.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
