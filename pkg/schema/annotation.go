package schema

import "fmt"

// Annotation selects the structural encoding behavior of an attribute.
type Annotation byte

const (
	// AnnotationNone marks an attribute whose value is stored as-is.
	AnnotationNone Annotation = iota + 1

	// AnnotationMap decomposes a keyed map into one child entity per pair.
	AnnotationMap

	// AnnotationVector decomposes an ordered list into one child entity
	// per element, keyed by position.
	AnnotationVector

	// AnnotationVariant holds exactly one typed child value whose concrete
	// type may vary across writes.
	AnnotationVariant

	// AnnotationOpaque serializes the value to an inert literal; its
	// internals are never decomposed.
	AnnotationOpaque
)

func (a Annotation) String() string {
	switch a {
	case AnnotationNone:
		return "none"
	case AnnotationMap:
		return "map"
	case AnnotationVector:
		return "vector"
	case AnnotationVariant:
		return "variant"
	case AnnotationOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("Annotation(%d)", byte(a))
	}
}

// ParseAnnotation parses the textual form used in schema files.
func ParseAnnotation(s string) (Annotation, error) {
	switch s {
	case "none", "":
		return AnnotationNone, nil
	case "map":
		return AnnotationMap, nil
	case "vector":
		return AnnotationVector, nil
	case "variant":
		return AnnotationVariant, nil
	case "opaque":
		return AnnotationOpaque, nil
	default:
		return 0, fmt.Errorf("invalid structural annotation %q", s)
	}
}
