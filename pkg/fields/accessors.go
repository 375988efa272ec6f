package fields

import "reflect"

// Equal applies the field's equality rule, element-wise for
// multi-valued fields.
func Equal(f Field, a, b any) bool {
	if !f.Definition().Multi {
		return f.Equal(a, b)
	}
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if !aok || !bok {
		return reflect.DeepEqual(a, b)
	}
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !f.Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}

// DescriptorGet converts a stored value into its externally visible
// form, mapping element-wise over multi-valued fields. A missing
// multi-valued value reads as an empty sequence.
func DescriptorGet(f Field, ctx Context, value any) (any, error) {
	if !f.Definition().Multi {
		return f.DescriptorGet(ctx, value)
	}
	values, _ := value.([]any)
	out := make([]any, 0, len(values))
	for _, sub := range values {
		v, err := f.DescriptorGet(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DescriptorSet validates and normalizes caller input, mapping
// element-wise over multi-valued fields. Any slice kind is accepted for
// a multi-valued field.
func DescriptorSet(f Field, ctx Context, value any) (any, error) {
	if !f.Definition().Multi {
		return f.DescriptorSet(ctx, value)
	}
	if value == nil {
		return []any{}, nil
	}
	values, ok := toAnySlice(value)
	if !ok {
		return nil, &ValidationError{Field: f.Definition().Name, Reason: "multi-valued field requires a slice"}
	}
	out := make([]any, 0, len(values))
	for _, sub := range values {
		v, err := f.DescriptorSet(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
