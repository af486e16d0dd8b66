// Package schema holds the per-class JSON Schema documents and validates
// driver descriptors against them.
//
// The mapping from driver class to schema is closed: a Set has exactly one
// slot per driver.Kind, filled from two fixed locations (see TreeSources) or
// from the embedded reference copies (see BuiltinSources). LoadSet either
// fills both slots or fails with a *LoadError.
package schema
