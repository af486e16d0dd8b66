// Package buildtree locates the project root the generator runs against and
// derives the default input and output directories from it. The generation
// pipeline never calls it; only the CLI does when no root is given.
package buildtree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Marker sets: a root holds every subdirectory of at least one set.
var (
	MbedTLSMarkers   = []string{"include", "library", "programs", "tests"}
	PSACryptoMarkers = []string{"include", "core", "drivers", "programs", "tests"}
)

// MarkerSets lists the layouts LooksLikeRoot accepts.
var MarkerSets = [][]string{MbedTLSMarkers, PSACryptoMarkers}

// MaxDepth bounds how many ancestors FindRoot inspects besides start.
const MaxDepth = 9

// ErrRootNotFound is returned when no directory in the search path has all
// the marker subdirectories.
var ErrRootNotFound = errors.New("buildtree: project root not found")

// LooksLikeRoot reports whether dir is an Mbed TLS or a PSA Crypto tree.
func LooksLikeRoot(dir string) bool {
	for _, markers := range MarkerSets {
		if hasDirs(dir, markers) {
			return true
		}
	}
	return false
}

func hasDirs(dir string, names []string) bool {
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// FindRoot walks from start up to MaxDepth ancestors and returns the first
// directory that looks like a root.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("buildtree: resolve %s: %w", start, err)
	}

	for depth := 0; depth <= MaxDepth; depth++ {
		if LooksLikeRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w (searched from %s)", ErrRootNotFound, start)
}

// Layout derives the conventional directories under a root.
type Layout struct {
	Root string
}

// TemplateDir holds the *.jinja wrapper templates.
func (l Layout) TemplateDir() string {
	return filepath.Join(l.Root, "scripts", "data_files", "driver_templates")
}

// JSONDir holds the driver descriptors, the manifest and the schemas.
func (l Layout) JSONDir() string {
	return filepath.Join(l.Root, "scripts", "data_files", "driver_jsons")
}

// OutputDir receives the generated sources.
func (l Layout) OutputDir() string {
	return filepath.Join(l.Root, "library")
}
