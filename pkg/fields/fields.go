// Package fields implements the field type system for SharePoint list
// items: a registry mapping wire-reported type names onto concrete field
// implementations, the flattened multi-value wire codec, typed accessor
// validation with field-defined equality, and the structured XML
// rendering of decoded values.
package fields

import (
	"reflect"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Definition carries the schema-derived identity of a field. It is built
// once when a list's schema is fetched and never mutated afterwards.
type Definition struct {
	// Name is the wire key; values travel as the "ows_<Name>" attribute.
	Name        string
	DisplayName string
	Description string

	// WireType is the type tag reported by the service (e.g. "Lookup").
	// TypeName is the normalized tag used in rendered output.
	WireType string
	TypeName string

	// Multi marks an ordered sequence of sub-values; GroupSize marks a
	// field whose logical value spans that many consecutive wire tokens.
	// The two are independent axes.
	Multi     bool
	GroupSize int

	// Immutable fields reject every descriptor set.
	Immutable bool

	// Default is the decoded value for an empty or absent wire value.
	Default any
}

// RowRef is the surface a resolved cross-list lookup presents. The
// concrete type is the owning package's live row; mutations through it
// are visible to every holder.
type RowRef interface {
	RowID() int
	RowName() string
	AsXML(opts XMLOptions) (*spxml.Element, error)
}

// Context supplies cross-list resolution to descriptor access. Lookup
// values store only identifiers; the live row is found through the
// owning collection at access time.
type Context interface {
	ResolveRow(listID string, rowID int) (RowRef, error)
}

// XMLOptions controls structured value rendering.
type XMLOptions struct {
	// FollowLookups inlines the referenced row's own rendering inside
	// lookup values. There is no cycle guard: rendering a cyclic lookup
	// graph with this enabled will not terminate, and guarding against
	// that is the caller's responsibility.
	FollowLookups bool
}

// Field is one polymorphic field type implementation. ParseToken and
// UnparseToken translate a single wire token group (length 1 for
// ungrouped fields, GroupSize otherwise) to and from the structured
// value; the package-level Parse and Unparse drive the surrounding
// flattened encoding. DescriptorGet and DescriptorSet implement the
// typed accessor semantics, and Equal defines the change-detection
// equality rule.
type Field interface {
	Definition() *Definition
	ParseToken(group []string) (any, error)
	UnparseToken(value any) ([]string, error)
	DescriptorGet(ctx Context, value any) (any, error)
	DescriptorSet(ctx Context, value any) (any, error)
	Equal(a, b any) bool
	ValueXML(ctx Context, value any, opts XMLOptions) (*spxml.Element, error)
	ExtraDefinition() map[string]string
}

// fieldBase supplies the common Definition plumbing and the default
// pass-through accessor behavior.
type fieldBase struct {
	def Definition
}

func newBase(schema *spxml.Element, typeName string) fieldBase {
	return fieldBase{def: Definition{
		Name:        schema.AttrValue("Name"),
		DisplayName: schema.AttrValue("DisplayName"),
		Description: schema.AttrValue("Description"),
		WireType:    schema.AttrValue("Type"),
		TypeName:    typeName,
		Multi:       schema.AttrValue("Mult") == "TRUE",
	}}
}

func (f *fieldBase) Definition() *Definition { return &f.def }

func (f *fieldBase) DescriptorGet(_ Context, value any) (any, error) { return value, nil }

func (f *fieldBase) DescriptorSet(_ Context, value any) (any, error) { return value, nil }

func (f *fieldBase) Equal(a, b any) bool { return reflect.DeepEqual(a, b) }

func (f *fieldBase) ExtraDefinition() map[string]string { return nil }

// AsXML renders a decoded value as one field element, looping over
// multi-valued fields so every sub-value gets its own typed child.
func AsXML(f Field, ctx Context, value any, opts XMLOptions) (*spxml.Element, error) {
	el := spxml.Out("field").WithAttr("name", f.Definition().Name)
	if f.Definition().Multi {
		values, ok := value.([]any)
		if !ok {
			return nil, &ValidationError{Field: f.Definition().Name, Reason: "multi-valued field holds a non-sequence value"}
		}
		for _, sub := range values {
			child, err := f.ValueXML(ctx, sub, opts)
			if err != nil {
				return nil, err
			}
			el.Add(child)
		}
		return el, nil
	}
	child, err := f.ValueXML(ctx, value, opts)
	if err != nil {
		return nil, err
	}
	return el.Add(child), nil
}
