package fields

import "reflect"

// LookupValue is the stored form of a cross-list reference: identifiers
// only, never a live pointer. Resolution happens through a Context at
// access time.
type LookupValue struct {
	List  string
	ID    int
	Title string
}

// UserValue is the stored form of a user field value.
type UserValue struct {
	ID   int
	Name string
}

// UserRef is implemented by principal types (such as users.User) so they
// can be assigned directly to user fields.
type UserRef interface {
	UserRef() UserValue
}

// URLValue is the external representation of a URL field value.
type URLValue struct {
	Href string
	Text string
}

// toAnySlice widens any slice kind to []any so callers may assign
// []string, []int, []LookupValue and so on to multi-valued fields.
func toAnySlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
