package fields

import (
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// CalculatedField is a server-evaluated expression encoded as a
// (runtime type tag, literal) pair. The tag drives interpretation;
// unrecognized tags pass through as text with a warning so new server
// runtime types degrade instead of failing.
type CalculatedField struct {
	fieldBase
}

func newCalculatedField(schema *spxml.Element, _ Options) Field {
	f := &CalculatedField{fieldBase: newBase(schema, "calculated")}
	f.def.GroupSize = 2
	f.def.Immutable = true
	return f
}

func (f *CalculatedField) ParseToken(group []string) (any, error) {
	if len(group) != 2 {
		return nil, fmt.Errorf("calculated group has %d tokens, want 2", len(group))
	}
	tag, literal := group[0], group[1]
	switch tag {
	case "float":
		n, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("bad calculated float %q", literal)
		}
		return n, nil
	default:
		glog.Warningf("fields: %s: unknown calculated type %q", f.def.Name, tag)
		return literal, nil
	}
}

func (f *CalculatedField) UnparseToken(value any) ([]string, error) {
	switch v := value.(type) {
	case float64:
		return []string{"float", strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case string:
		return []string{"text", v}, nil
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("unsupported calculated value %T", value)}
	}
}

func (f *CalculatedField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	name := "unknown"
	switch value.(type) {
	case float64:
		name = "float"
	case string:
		name = "text"
	case int:
		name = "int"
	}
	return spxml.OutText(name, fmt.Sprint(value)).WithAttr("calculated", "true"), nil
}
