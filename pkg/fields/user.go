package fields

import (
	"fmt"
	"strconv"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// UserField is a principal reference encoded as (id, display name)
// token pairs.
type UserField struct {
	fieldBase
}

func newUserField(schema *spxml.Element, _ Options) Field {
	f := &UserField{fieldBase: newBase(schema, "user")}
	f.def.GroupSize = 2
	return f
}

// newUserMultiField forces the multi axis; UserMulti columns are always
// sequences on the wire.
func newUserMultiField(schema *spxml.Element, opts Options) Field {
	f := newUserField(schema, opts).(*UserField)
	f.def.Multi = true
	return f
}

func (f *UserField) ParseToken(group []string) (any, error) {
	if len(group) != 2 {
		return nil, fmt.Errorf("user group has %d tokens, want 2", len(group))
	}
	id, err := strconv.Atoi(group[0])
	if err != nil {
		return nil, fmt.Errorf("bad user id %q", group[0])
	}
	return UserValue{ID: id, Name: group[1]}, nil
}

func (f *UserField) UnparseToken(value any) ([]string, error) {
	v, ok := value.(UserValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected UserValue, got %T", value)}
	}
	return []string{strconv.Itoa(v.ID), v.Name}, nil
}

func (f *UserField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return UserValue{ID: v}, nil
	case UserValue:
		return v, nil
	case UserRef:
		return v.UserRef(), nil
	default:
		return nil, &ValidationError{
			Field:  f.def.Name,
			Reason: fmt.Sprintf("value must be a user ID, a UserValue, or a principal, not %T", value),
		}
	}
}

func (f *UserField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	v, ok := value.(UserValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected UserValue, got %T", value)}
	}
	return spxml.OutText("user", v.Name).WithAttr("id", strconv.Itoa(v.ID)), nil
}
