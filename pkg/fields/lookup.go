package fields

import (
	"fmt"
	"strconv"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// LookupField is a cross-list reference encoded as (id, title) token
// pairs. The stored value keeps identifiers only; DescriptorGet resolves
// the live row through the Context at access time.
type LookupField struct {
	fieldBase

	// LookupList is the identifier of the referenced list.
	LookupList string
}

func newLookupField(schema *spxml.Element, _ Options) Field {
	f := &LookupField{
		fieldBase:  newBase(schema, "lookup"),
		LookupList: schema.AttrValue("List"),
	}
	f.def.GroupSize = 2
	return f
}

func (f *LookupField) ParseToken(group []string) (any, error) {
	if len(group) != 2 {
		return nil, fmt.Errorf("lookup group has %d tokens, want 2", len(group))
	}
	id, err := strconv.Atoi(group[0])
	if err != nil {
		return nil, fmt.Errorf("bad lookup id %q", group[0])
	}
	return LookupValue{List: f.LookupList, ID: id, Title: group[1]}, nil
}

func (f *LookupField) UnparseToken(value any) ([]string, error) {
	v, ok := value.(LookupValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected LookupValue, got %T", value)}
	}
	return []string{strconv.Itoa(v.ID), v.Title}, nil
}

func (f *LookupField) DescriptorGet(ctx Context, value any) (any, error) {
	v, ok := value.(LookupValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected LookupValue, got %T", value)}
	}
	return ctx.ResolveRow(v.List, v.ID)
}

func (f *LookupField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case RowRef:
		return LookupValue{List: f.LookupList, ID: v.RowID(), Title: v.RowName()}, nil
	case int:
		return LookupValue{List: f.LookupList, ID: v}, nil
	case LookupValue:
		v.List = f.LookupList
		return v, nil
	default:
		return nil, &ValidationError{
			Field:  f.def.Name,
			Reason: fmt.Sprintf("value must be a row, a row ID, or a LookupValue, not %T", value),
		}
	}
}

func (f *LookupField) ValueXML(ctx Context, value any, opts XMLOptions) (*spxml.Element, error) {
	v, ok := value.(LookupValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected LookupValue, got %T", value)}
	}
	el := spxml.Out("lookup").
		WithAttr("list", v.List).
		WithAttr("id", strconv.Itoa(v.ID))
	if opts.FollowLookups {
		row, err := ctx.ResolveRow(v.List, v.ID)
		if err != nil {
			return nil, err
		}
		inner, err := row.AsXML(opts)
		if err != nil {
			return nil, err
		}
		el.Add(inner)
	}
	return el, nil
}

func (f *LookupField) ExtraDefinition() map[string]string {
	return map[string]string{"list": f.LookupList}
}
