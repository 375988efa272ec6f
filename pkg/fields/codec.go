package fields

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// The service flattens multi-valued and grouped fields into one
// delimited string: ";#" separates values, ";;" escapes a literal
// semicolon. A lone ";" is malformed input; decoding warns and keeps the
// character rather than failing, so a damaged row still loads
// best-effort.

// splitEncoded splits a flattened wire value into raw tokens,
// unescaping ";;" as it goes.
func splitEncoded(name, value string) []string {
	var (
		tokens []string
		buf    strings.Builder
	)
	for i := 0; i < len(value); {
		c := value[i]
		if c != ';' {
			buf.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(value) {
			switch value[i+1] {
			case ';':
				buf.WriteByte(';')
				i += 2
				continue
			case '#':
				tokens = append(tokens, buf.String())
				buf.Reset()
				i += 2
				continue
			}
		}
		glog.Warningf("fields: %s: unexpected lone ';' at offset %d in %q", name, i, value)
		buf.WriteByte(';')
		i++
	}
	return append(tokens, buf.String())
}

func escapeToken(s string) string {
	return strings.ReplaceAll(s, ";", ";;")
}

// Parse decodes a field's flattened wire value from a row's attribute
// set. Empty or absent values decode to the field's declared default.
// Multi-valued fields decode to []any; grouped fields are chunked into
// GroupSize token groups before the per-type parse runs, and a trailing
// fully-empty group (the server's trailing-delimiter artifact) is
// dropped.
func Parse(f Field, attrs map[string]string) (any, error) {
	def := f.Definition()
	value := attrs["ows_"+def.Name]
	if value == "" {
		return def.Default, nil
	}

	switch {
	case def.Multi:
		tokens := splitEncoded(def.Name, value)
		if def.GroupSize > 0 {
			groups := chunkTokens(tokens, def.GroupSize)
			if n := len(groups); n > 0 && groups[n-1][0] == "" {
				groups = groups[:n-1]
			}
			values := make([]any, 0, len(groups))
			for _, group := range groups {
				v, err := f.ParseToken(group)
				if err != nil {
					return nil, fmt.Errorf("fields: parse %s: %w", def.Name, err)
				}
				values = append(values, v)
			}
			return values, nil
		}
		values := make([]any, 0, len(tokens))
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			v, err := f.ParseToken([]string{tok})
			if err != nil {
				return nil, fmt.Errorf("fields: parse %s: %w", def.Name, err)
			}
			values = append(values, v)
		}
		return values, nil

	case def.GroupSize > 0:
		group := strings.SplitN(value, ";#", def.GroupSize)
		v, err := f.ParseToken(group)
		if err != nil {
			return nil, fmt.Errorf("fields: parse %s: %w", def.Name, err)
		}
		return v, nil

	default:
		v, err := f.ParseToken([]string{value})
		if err != nil {
			return nil, fmt.Errorf("fields: parse %s: %w", def.Name, err)
		}
		return v, nil
	}
}

func chunkTokens(tokens []string, size int) [][]string {
	var groups [][]string
	for len(tokens) > size {
		groups = append(groups, tokens[:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		groups = append(groups, tokens)
	}
	return groups
}

// Unparse re-encodes a structured value into the flattened wire form.
// Group reconstruction must yield exactly GroupSize tokens per value; a
// mismatch is a modeling bug in the field implementation and panics.
func Unparse(f Field, value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if s, ok := value.(string); ok && s == "" {
		return "", nil
	}

	def := f.Definition()
	switch {
	case def.Multi && def.GroupSize > 0:
		values, ok := toAnySlice(value)
		if !ok {
			return "", &ValidationError{Field: def.Name, Reason: "multi-valued field holds a non-sequence value"}
		}
		var flat []string
		for _, sub := range values {
			group, err := f.UnparseToken(sub)
			if err != nil {
				return "", fmt.Errorf("fields: unparse %s: %w", def.Name, err)
			}
			assertGroupSize(def, group)
			flat = append(flat, group...)
		}
		return joinEscaped(flat), nil

	case def.GroupSize > 0:
		group, err := f.UnparseToken(value)
		if err != nil {
			return "", fmt.Errorf("fields: unparse %s: %w", def.Name, err)
		}
		assertGroupSize(def, group)
		return joinEscaped(group), nil

	case def.Multi:
		values, ok := toAnySlice(value)
		if !ok {
			return "", &ValidationError{Field: def.Name, Reason: "multi-valued field holds a non-sequence value"}
		}
		if len(values) == 0 {
			return "", nil
		}
		tokens := make([]string, 0, len(values))
		for _, sub := range values {
			group, err := f.UnparseToken(sub)
			if err != nil {
				return "", fmt.Errorf("fields: unparse %s: %w", def.Name, err)
			}
			tokens = append(tokens, escapeToken(group[0]))
		}
		// The service expects ';#foo;#bar;#' with boundary markers on
		// both ends.
		return ";#" + strings.Join(tokens, ";#") + ";#", nil

	default:
		group, err := f.UnparseToken(value)
		if err != nil {
			return "", fmt.Errorf("fields: unparse %s: %w", def.Name, err)
		}
		return group[0], nil
	}
}

func assertGroupSize(def *Definition, group []string) {
	if len(group) != def.GroupSize {
		panic(fmt.Sprintf("fields: %s: unparsed group has %d tokens, want %d", def.Name, len(group), def.GroupSize))
	}
}

func joinEscaped(tokens []string) string {
	escaped := make([]string, len(tokens))
	for i, tok := range tokens {
		escaped[i] = escapeToken(tok)
	}
	return strings.Join(escaped, ";#")
}
