package fields

import (
	"fmt"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// UnknownField is the forward-compatibility fallback for wire types the
// registry does not recognize. Values round-trip as opaque strings.
type UnknownField struct {
	fieldBase
}

func newUnknownField(schema *spxml.Element, _ Options) Field {
	return &UnknownField{fieldBase: newBase(schema, "unknown")}
}

func (f *UnknownField) ParseToken(group []string) (any, error) { return group[0], nil }

func (f *UnknownField) UnparseToken(value any) ([]string, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected string, got %T", value)}
	}
	return []string{s}, nil
}

func (f *UnknownField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("unknown", fmt.Sprint(value)), nil
}
