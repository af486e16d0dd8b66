// Package cli holds helpers shared by the drivergen commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Trace writes err and every error it wraps to w, one link per line, each
// tagged with its dynamic type. Joined errors are walked depth first.
func Trace(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	trace(w, err, 1)
}

func trace(w io.Writer, err error, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%T: %v\n", indent, err, err)

	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			if inner != nil {
				trace(w, inner, depth+1)
			}
		}
	default:
		if inner := errors.Unwrap(err); inner != nil {
			trace(w, inner, depth+1)
		}
	}
}
