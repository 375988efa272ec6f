package fields

import (
	"sync"

	"github.com/golang/glog"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Constructor builds a field implementation from its raw schema element.
type Constructor func(schema *spxml.Element, opts Options) Field

// Options carries registry-wide construction settings down to the
// individual field constructors.
type Options struct {
	// RichTextPolicy, when set, sanitizes values assigned to rich-text
	// Text fields. Nil (the default) leaves values untouched so wire
	// round-trips stay byte-faithful.
	RichTextPolicy *bluemonday.Policy
}

// Option mutates registry construction settings.
type Option func(*Options)

// WithRichTextPolicy installs a sanitization policy for rich-text fields.
func WithRichTextPolicy(policy *bluemonday.Policy) Option {
	return func(o *Options) { o.RichTextPolicy = policy }
}

// Registry maps wire-reported field type names onto constructors. An
// unrecognized type name resolves to the unknown fallback rather than an
// error: new server field types must keep round-tripping as opaque text.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	fallback     Constructor
	opts         Options
}

// NewRegistry constructs a registry with the built-in type table
// registered.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
		fallback:     newUnknownField,
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a constructor for a wire type name.
func (r *Registry) Register(wireType string, c Constructor) {
	if wireType == "" || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[wireType] = c
}

// Resolve returns the constructor for a wire type name, falling back to
// the unknown field constructor when no exact match exists.
func (r *Registry) Resolve(wireType string) Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.constructors[wireType]; ok {
		return c
	}
	glog.V(2).Infof("fields: no constructor for wire type %q, using unknown fallback", wireType)
	return r.fallback
}

// Build constructs the field implementation for a raw schema element.
func (r *Registry) Build(schema *spxml.Element) Field {
	return r.Resolve(schema.AttrValue("Type"))(schema, r.opts)
}

func (r *Registry) registerBuiltins() {
	for wireType, c := range map[string]Constructor{
		"Text":        newTextField,
		"Note":        newTextField,
		"Computed":    newTextField,
		"Choice":      newChoiceField,
		"MultiChoice": newMultiChoiceField,
		"Lookup":      newLookupField,
		"LookupMulti": newLookupField,
		"URL":         newURLField,
		"DateTime":    newDateTimeField,
		"Counter":     newCounterField,
		"Number":      newNumberField,
		"Integer":     newIntegerField,
		"Boolean":     newBooleanField,
		"User":        newUserField,
		"UserMulti":   newUserMultiField,
		"Calculated":  newCalculatedField,
		"ModStat":     newModerationStatusField,
	} {
		r.constructors[wireType] = c
	}
}
