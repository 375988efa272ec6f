package fields

import (
	"fmt"
	"time"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// WireTimeLayout is the fixed timestamp format the service uses in row
// attribute values.
const WireTimeLayout = "2006-01-02 15:04:05"

// DateTimeField decodes the service timestamp format into time.Time.
type DateTimeField struct {
	fieldBase
}

func newDateTimeField(schema *spxml.Element, _ Options) Field {
	return &DateTimeField{fieldBase: newBase(schema, "dateTime")}
}

func (f *DateTimeField) ParseToken(group []string) (any, error) {
	t, err := time.Parse(WireTimeLayout, group[0])
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q", group[0])
	}
	return t, nil
}

func (f *DateTimeField) UnparseToken(value any) ([]string, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected time.Time, got %T", value)}
	}
	return []string{t.Format(WireTimeLayout)}, nil
}

func (f *DateTimeField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected time.Time, got %T", value)}
	}
}

func (f *DateTimeField) Equal(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	return a == b
}

func (f *DateTimeField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected time.Time, got %T", value)}
	}
	return spxml.OutText("dateTime", t.Format("2006-01-02T15:04:05")), nil
}
