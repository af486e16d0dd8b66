// Package driver models the declarative driver descriptors consumed by the
// wrapper generator. A Descriptor is a tagged union over the closed set of
// driver kinds: a common {type, prefix} envelope plus the class-specific
// payload, which is validated once at load time and then passed to templates
// untouched.
package driver
