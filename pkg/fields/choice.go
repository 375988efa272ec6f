package fields

import (
	"fmt"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// ChoiceField is a plain string selection.
type ChoiceField struct {
	fieldBase
}

func newChoiceField(schema *spxml.Element, _ Options) Field {
	return &ChoiceField{fieldBase: newBase(schema, "choice")}
}

// newMultiChoiceField forces the multi axis regardless of the schema's
// Mult attribute; MultiChoice columns are always sequences on the wire.
func newMultiChoiceField(schema *spxml.Element, opts Options) Field {
	f := newChoiceField(schema, opts).(*ChoiceField)
	f.def.Multi = true
	return f
}

func (f *ChoiceField) ParseToken(group []string) (any, error) { return group[0], nil }

func (f *ChoiceField) UnparseToken(value any) ([]string, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected string, got %T", value)}
	}
	return []string{s}, nil
}

func (f *ChoiceField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected string, got %T", value)}
	}
}

func (f *ChoiceField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("text", fmt.Sprint(value)), nil
}
