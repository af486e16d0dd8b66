package pongo

import (
	"math"
	"strconv"
	"strings"
)

// Float is a template float that prints like a Jinja float: the shortest
// round-tripping form, "2.0" for integral values and an exponent outside
// [1e-4, 1e16). pongo2 formats plain float64 values with six decimals.
type Float float64

func (f Float) String() string {
	v := float64(f)
	abs := math.Abs(v)
	if math.IsInf(v, 0) || math.IsNaN(v) || (abs != 0 && (abs < 1e-4 || abs >= 1e16)) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
