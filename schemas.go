package drivergen

import (
	"io/fs"

	"github.com/goliatone/go-drivergen/pkg/schema"
)

// BuiltinSchemasFS exposes the transparent and opaque driver schemas
// compiled into the module, keyed by their tree file names, so callers can
// validate without a project checkout or copy the schemas into one.
//
// Typical use:
//
//	raw, err := fs.ReadFile(drivergen.BuiltinSchemasFS(), schema.OpaqueFile)
func BuiltinSchemasFS() fs.FS {
	return schema.BuiltinFS()
}
