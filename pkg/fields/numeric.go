package fields

import (
	"fmt"
	"strconv"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// NumberField holds a float64.
type NumberField struct {
	fieldBase
}

func newNumberField(schema *spxml.Element, _ Options) Field {
	return &NumberField{fieldBase: newBase(schema, "number")}
}

func (f *NumberField) ParseToken(group []string) (any, error) {
	n, err := strconv.ParseFloat(group[0], 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", group[0])
	}
	return n, nil
}

func (f *NumberField) UnparseToken(value any) ([]string, error) {
	n, ok := value.(float64)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected float64, got %T", value)}
	}
	return []string{strconv.FormatFloat(n, 'f', -1, 64)}, nil
}

func (f *NumberField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected numeric value, got %T", value)}
	}
}

func (f *NumberField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("number", fmt.Sprint(value)), nil
}

// IntegerField holds an int.
type IntegerField struct {
	fieldBase
}

func newIntegerField(schema *spxml.Element, _ Options) Field {
	return &IntegerField{fieldBase: newBase(schema, "integer")}
}

func (f *IntegerField) ParseToken(group []string) (any, error) {
	n, err := strconv.Atoi(group[0])
	if err != nil {
		return nil, fmt.Errorf("bad integer %q", group[0])
	}
	return n, nil
}

func (f *IntegerField) UnparseToken(value any) ([]string, error) {
	n, ok := value.(int)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected int, got %T", value)}
	}
	return []string{strconv.Itoa(n)}, nil
}

func (f *IntegerField) DescriptorSet(_ Context, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected integer value, got %T", value)}
	}
}

func (f *IntegerField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("int", fmt.Sprint(value)), nil
}

// BooleanField decodes the service's "1"/"0" convention.
type BooleanField struct {
	fieldBase
}

func newBooleanField(schema *spxml.Element, _ Options) Field {
	return &BooleanField{fieldBase: newBase(schema, "boolean")}
}

func (f *BooleanField) ParseToken(group []string) (any, error) {
	return group[0] == "1", nil
}

func (f *BooleanField) UnparseToken(value any) ([]string, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected bool, got %T", value)}
	}
	if b {
		return []string{"1"}, nil
	}
	return []string{"0"}, nil
}

func (f *BooleanField) DescriptorSet(_ Context, value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected bool, got %T", value)}
	}
	return b, nil
}

func (f *BooleanField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	if b, _ := value.(bool); b {
		return spxml.OutText("boolean", "true"), nil
	}
	return spxml.OutText("boolean", "false"), nil
}

// CounterField is the server-assigned row identifier. It is always
// immutable; values only ever arrive from reconciled responses.
type CounterField struct {
	fieldBase
}

func newCounterField(schema *spxml.Element, _ Options) Field {
	f := &CounterField{fieldBase: newBase(schema, "counter")}
	f.def.Immutable = true
	return f
}

func (f *CounterField) ParseToken(group []string) (any, error) {
	n, err := strconv.Atoi(group[0])
	if err != nil {
		return nil, fmt.Errorf("bad counter %q", group[0])
	}
	return n, nil
}

func (f *CounterField) UnparseToken(value any) ([]string, error) {
	n, ok := value.(int)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected int, got %T", value)}
	}
	return []string{strconv.Itoa(n)}, nil
}

func (f *CounterField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("int", fmt.Sprint(value)), nil
}
