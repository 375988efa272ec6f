package fields

import (
	"fmt"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

var urlSchemes = []string{"mailto:", "http:", "https:"}

// URLField holds an "href, text" pair. Assigned hrefs must carry one of
// the mailto:, http: or https: schemes.
type URLField struct {
	fieldBase
}

func newURLField(schema *spxml.Element, _ Options) Field {
	return &URLField{fieldBase: newBase(schema, "url")}
}

func (f *URLField) ParseToken(group []string) (any, error) {
	href, text, found := strings.Cut(group[0], ", ")
	if !found {
		return nil, fmt.Errorf("bad URL value %q", group[0])
	}
	return URLValue{Href: href, Text: text}, nil
}

func (f *URLField) UnparseToken(value any) ([]string, error) {
	v, ok := value.(URLValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected URLValue, got %T", value)}
	}
	return []string{v.Href + ", " + v.Text}, nil
}

func (f *URLField) DescriptorSet(_ Context, value any) (any, error) {
	var v URLValue
	switch raw := value.(type) {
	case nil:
		return nil, nil
	case string:
		if raw == "" {
			return nil, nil
		}
		v = URLValue{Href: raw}
	case URLValue:
		v = raw
	default:
		return nil, &ValidationError{
			Field:  f.def.Name,
			Reason: fmt.Sprintf("value must be a string or a URLValue, not %T", value),
		}
	}
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(v.Href, scheme) {
			return v, nil
		}
	}
	return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("%q is not a valid URL", v.Href)}
}

func (f *URLField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	v, ok := value.(URLValue)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected URLValue, got %T", value)}
	}
	return spxml.OutText("url", v.Text).WithAttr("href", v.Href), nil
}
