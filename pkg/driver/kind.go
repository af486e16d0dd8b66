package driver

// Kind enumerates the driver classes the generator knows how to dispatch to.
// Adding a class is a code change, not configuration.
type Kind string

const (
	KindTransparent Kind = "transparent"
	KindOpaque      Kind = "opaque"
)

// Kinds returns the known driver classes in a stable order.
func Kinds() []Kind {
	return []Kind{KindTransparent, KindOpaque}
}

// ParseKind maps the raw descriptor type onto a known Kind.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindTransparent:
		return KindTransparent, true
	case KindOpaque:
		return KindOpaque, true
	default:
		return "", false
	}
}

// Known reports whether k is one of the enumerated classes.
func (k Kind) Known() bool {
	_, ok := ParseKind(string(k))
	return ok
}

func (k Kind) String() string {
	return string(k)
}
