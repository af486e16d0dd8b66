package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-drivergen/pkg/driver"
)

// Diagnostics is the pair of streams validation failures are reported on.
// Both receive the same message so tooling can grep either one.
type Diagnostics struct {
	Stdout io.Writer
	Stderr io.Writer
}

// ProcessDiagnostics reports on the process stdout and stderr.
func ProcessDiagnostics() Diagnostics {
	return Diagnostics{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Report writes msg as one line to every configured stream.
func (d Diagnostics) Report(msg string) {
	line := strings.TrimRight(msg, "\n") + "\n"
	for _, w := range []io.Writer{d.Stdout, d.Stderr} {
		if w == nil {
			continue
		}
		_, _ = io.WriteString(w, line)
	}
}

// Validator checks descriptors against the schema of their declared class.
type Validator struct {
	set  *Set
	diag Diagnostics
}

// NewValidator binds a Set to the diagnostics streams.
func NewValidator(set *Set, diag Diagnostics) *Validator {
	return &Validator{set: set, diag: diag}
}

// Set returns the schemas the validator uses.
func (v *Validator) Set() *Set {
	return v.set
}

// Validate returns *driver.UnknownTypeError when the declared type has no
// schema and *driver.SchemaValidationError when the descriptor violates it.
// A descriptor is never partially accepted.
func (v *Validator) Validate(desc driver.Descriptor) error {
	s, ok := v.set.Lookup(desc.Kind())
	if !ok {
		err := &driver.UnknownTypeError{Type: desc.DeclaredType(), Prefix: desc.Prefix()}
		v.diag.Report(fmt.Sprintf("Error: %s", err))
		return err
	}

	issues := s.Check(desc.Raw())
	if len(issues) == 0 {
		return nil
	}

	err := &driver.SchemaValidationError{
		Descriptor: desc,
		Schema:     s.Location(),
		Issues:     issues,
	}
	v.diag.Report(fmt.Sprintf("Error: failed to validate data file %s using schema %s: %s",
		desc.Source(), s.Location(), joinIssues(issues)))
	return err
}

func joinIssues(issues []driver.Issue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}
