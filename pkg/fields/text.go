package fields

import (
	"fmt"
	"html"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// TextField handles Text, Note and Computed columns. Rich-text fields
// parse identically but compare equal modulo HTML/XML entity encoding,
// so a cosmetically re-encoded value does not count as a change.
type TextField struct {
	fieldBase
	MaximumLength int
	RichText      bool

	sanitizer *bluemonday.Policy
}

func newTextField(schema *spxml.Element, opts Options) Field {
	f := &TextField{fieldBase: newBase(schema, "text")}
	f.def.Default = ""
	if raw, ok := schema.Attr("MaxLength"); ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			f.MaximumLength = n
		}
	}
	f.RichText = schema.AttrValue("RichText") == "TRUE"
	if f.RichText {
		f.sanitizer = opts.RichTextPolicy
	}
	return f
}

func (f *TextField) ParseToken(group []string) (any, error) { return group[0], nil }

func (f *TextField) UnparseToken(value any) ([]string, error) {
	if value == nil {
		return []string{""}, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected string, got %T", value)}
	}
	return []string{s}, nil
}

func (f *TextField) DescriptorGet(_ Context, value any) (any, error) {
	if value == nil {
		return "", nil
	}
	return value, nil
}

func (f *TextField) DescriptorSet(_ Context, value any) (any, error) {
	s := ""
	switch v := value.(type) {
	case nil:
	case string:
		s = v
	default:
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected string, got %T", value)}
	}
	if f.MaximumLength > 0 && len([]rune(s)) > f.MaximumLength {
		return nil, &ValidationError{
			Field:  f.def.Name,
			Reason: fmt.Sprintf("value is too long (%d, instead of %d characters)", len([]rune(s)), f.MaximumLength),
		}
	}
	if f.sanitizer != nil {
		s = f.sanitizer.Sanitize(s)
	}
	return s, nil
}

func (f *TextField) Equal(a, b any) bool {
	if f.RichText {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return html.UnescapeString(as) == html.UnescapeString(bs)
		}
	}
	return a == b
}

func (f *TextField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	return spxml.OutText("text", fmt.Sprint(value)), nil
}
