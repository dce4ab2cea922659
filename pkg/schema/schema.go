// Package schema holds the structural annotations that drive the encoder:
// the annotation enum, the reserved element attributes, and loading of
// user attribute schemas from YAML files.
package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/factstore/datomize/pkg/datom"
)

// AnnotationError reports an attribute that is not installed, or carries an
// invalid annotation, where one is required. It is a fatal configuration
// error; the encoder never defaults it silently.
type AnnotationError struct {
	Attribute datom.Keyword
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("attribute %s has no installed structural annotation", e.Attribute)
}

// Schema maps installed attributes to their structural annotations.
// Annotations are supplied externally per attribute; this is not a general
// schema language.
type Schema struct {
	annotations map[datom.Keyword]Annotation
}

// New returns an empty schema containing only the builtin element
// attributes.
func New() *Schema {
	s := &Schema{annotations: make(map[datom.Keyword]Annotation)}
	s.installBuiltins()
	return s
}

func (s *Schema) installBuiltins() {
	s.annotations[AttrElementKey] = AnnotationNone
	s.annotations[AttrElementIndex] = AnnotationNone
	s.annotations[AttrEmpty] = AnnotationNone
	for kind, attr := range elementValueAttrs {
		switch kind {
		case datom.KindMap:
			s.annotations[attr] = AnnotationMap
		case datom.KindVector:
			s.annotations[attr] = AnnotationVector
		default:
			s.annotations[attr] = AnnotationNone
		}
	}
}

// Install registers an attribute with its structural annotation.
func (s *Schema) Install(attr datom.Keyword, ann Annotation) {
	s.annotations[attr] = ann
}

// Annotation returns the structural annotation of an installed attribute.
// An uninstalled attribute is a configuration error.
func (s *Schema) Annotation(attr datom.Keyword) (Annotation, error) {
	ann, ok := s.annotations[attr]
	if !ok {
		return 0, &AnnotationError{Attribute: attr}
	}
	return ann, nil
}

// Installed reports whether attr is known to the schema.
func (s *Schema) Installed(attr datom.Keyword) bool {
	_, ok := s.annotations[attr]
	return ok
}

// Attributes returns the installed attributes in sorted order.
func (s *Schema) Attributes() []datom.Keyword {
	attrs := make([]datom.Keyword, 0, len(s.annotations))
	for a := range s.annotations {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

type schemaFile struct {
	Attributes []struct {
		Ident      string `yaml:"ident"`
		Annotation string `yaml:"annotation"`
	} `yaml:"attributes"`
}

// Load reads a YAML attribute schema and merges it over the builtins.
//
//	attributes:
//	  - ident: ":test/edn-map"
//	    annotation: map
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds a schema from YAML bytes.
func Parse(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	s := New()
	for _, a := range f.Attributes {
		if a.Ident == "" {
			return nil, fmt.Errorf("schema attribute with empty ident")
		}
		ann, err := ParseAnnotation(a.Annotation)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Ident, err)
		}
		s.Install(datom.Keyword(a.Ident), ann)
	}
	return s, nil
}
