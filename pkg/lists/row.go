package lists

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Row is one list item: a mapping from field name to decoded value plus
// the change-set of field names mutated since the last synchronization
// with the server. A row belongs to exactly one list; an id of 0 means
// it has never been persisted.
type Row struct {
	list *List
	id   int

	data    map[string]any
	changed map[string]struct{}

	attachments *Attachments
}

// newRowFromAttrs materializes a row from a server-returned raw
// attribute set. The change-set starts clear.
func newRowFromAttrs(l *List, attrs map[string]string) (*Row, error) {
	row := &Row{list: l}
	if err := row.update(attrs, true); err != nil {
		return nil, err
	}
	return row, nil
}

// newRowFromValues builds a fresh row from caller-supplied field values,
// applied through the typed setters so every set field starts dirty.
func newRowFromValues(ctx context.Context, l *List, values map[string]any) (*Row, error) {
	if _, err := l.Fields(ctx); err != nil {
		return nil, err
	}
	row := &Row{
		list:    l,
		data:    make(map[string]any),
		changed: make(map[string]struct{}),
	}
	for name, value := range values {
		if err := row.Set(name, value); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// update reconciles the row's field set from a raw attribute map. This
// is the single entry point for server-sourced state: initial load and
// post-save reconciliation both come through here.
func (r *Row) update(attrs map[string]string, clear bool) error {
	if clear {
		r.data = make(map[string]any)
		r.changed = make(map[string]struct{})
	}
	for _, name := range r.list.fieldOrder {
		value, err := fields.Parse(r.list.fieldSet[name], attrs)
		if err != nil {
			return err
		}
		if value != nil {
			r.data[name] = value
		}
	}
	if id, ok := r.data["ID"].(int); ok {
		r.id = id
		if r.list.rowsByID != nil {
			r.list.rowsByID[id] = r
		}
	}
	return nil
}

// ID is the server-assigned row identifier, 0 until the first save.
func (r *Row) ID() int { return r.id }

// Name is the row's Title, falling back to its file link name.
func (r *Row) Name() string {
	if v, ok := r.data["Title"]; ok {
		s, _ := v.(string)
		return s
	}
	s, _ := r.data["LinkFilename"].(string)
	return s
}

// IsFile reports whether the row represents a file.
func (r *Row) IsFile() bool {
	_, ok := r.data["LinkFilename"]
	return ok
}

// RowID implements fields.RowRef.
func (r *Row) RowID() int { return r.id }

// RowName implements fields.RowRef.
func (r *Row) RowName() string { return r.Name() }

// Get returns a field's externally visible value: lookups dereference
// into the live row of the referenced list, multi-valued fields read as
// []any, and unset fields read as nil.
func (r *Row) Get(ctx context.Context, name string) (any, error) {
	f, ok := r.list.fieldSet[name]
	if !ok {
		return nil, &NotFoundError{Kind: "field", Key: name}
	}
	value, present := r.data[name]
	if !present && !f.Definition().Multi {
		return nil, nil
	}
	return fields.DescriptorGet(f, r.list.lists.bind(ctx), value)
}

// Set validates and assigns a field value. The change-set records the
// field only when the new value differs from the old one under the
// field's own equality rule, so a semantically identical assignment is
// a no-op. Immutable fields reject every set.
func (r *Row) Set(name string, value any) error {
	f, ok := r.list.fieldSet[name]
	if !ok {
		return &NotFoundError{Kind: "field", Key: name}
	}
	if f.Definition().Immutable {
		return &fields.ImmutableError{Field: name}
	}
	newValue, err := fields.DescriptorSet(f, r.list.lists.bind(context.Background()), value)
	if err != nil {
		return err
	}
	if fields.Equal(f, newValue, r.data[name]) {
		return nil
	}
	r.data[name] = newValue
	r.changed[name] = struct{}{}
	return nil
}

// Changed returns the field names mutated since the last
// synchronization.
func (r *Row) Changed() []string {
	var names []string
	for _, name := range r.list.fieldOrder {
		if _, ok := r.changed[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Delete stages the row for deletion from its list.
func (r *Row) Delete() { r.list.Remove(r) }

// BatchMethod derives the row's pending command for the batched update
// protocol: nil when the change-set is empty, otherwise a Method element
// with Cmd Update (persisted row) or New, the ID field, and one Field
// per changed name carrying its unparsed wire value.
func (r *Row) BatchMethod() (*spxml.Element, error) {
	if len(r.changed) == 0 {
		return nil, nil
	}
	cmd, idText := "New", "New"
	if r.id != 0 {
		cmd, idText = "Update", strconv.Itoa(r.id)
	}
	method := spxml.Plain("Method").WithAttr("Cmd", cmd)
	method.Add(spxml.PlainText("Field", idText).WithAttr("Name", "ID"))
	for _, name := range r.list.fieldOrder {
		if _, ok := r.changed[name]; !ok {
			continue
		}
		value, err := fields.Unparse(r.list.fieldSet[name], r.data[name])
		if err != nil {
			return nil, err
		}
		method.Add(spxml.PlainText("Field", value).WithAttr("Name", name))
	}
	return method, nil
}

// Values returns the row's decoded structured values keyed by field
// name. Immutable fields are skipped unless includeImmutable is set;
// a non-nil names slice restricts the result to those fields.
func (r *Row) Values(includeImmutable bool, names []string) map[string]any {
	var keep map[string]struct{}
	if names != nil {
		keep = make(map[string]struct{}, len(names))
		for _, name := range names {
			keep[name] = struct{}{}
		}
	}
	out := make(map[string]any)
	for _, name := range r.list.fieldOrder {
		if !includeImmutable && r.list.fieldSet[name].Definition().Immutable {
			continue
		}
		if keep != nil {
			if _, ok := keep[name]; !ok {
				continue
			}
		}
		if value, ok := r.data[name]; ok {
			out[name] = value
		}
	}
	return out
}

// Hidden bookkeeping columns never carried over when copying rows
// between lists.
var copyExcludedFields = map[string]struct{}{
	"Attachments": {}, "File_x0020_Type": {}, "FileLeafRef": {}, "Edit": {},
	"LinkFilenameNoMenu": {}, "owshiddenversion": {}, "ContentType": {},
	"ContentTypeId": {}, "EncodedAbsUrl": {}, "LinkTitle": {},
	"WorkflowVersion": {}, "BaseName": {},
}

// CopyValues projects the row's mutable values onto another list's
// schema: only fields the two schemas share survive, and hidden or
// underscore-prefixed bookkeeping columns are dropped.
func (r *Row) CopyValues(ctx context.Context, target *List) (map[string]any, error) {
	targetFields, err := target.Fields(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range targetFields {
		if _, ours := r.list.fieldSet[name]; !ours {
			continue
		}
		if _, excluded := copyExcludedFields[name]; excluded {
			continue
		}
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	return r.Values(false, names), nil
}

// Open downloads the row's file content. The Translate header asks the
// server for the file itself rather than a web rendering of it.
func (r *Row) Open(ctx context.Context) (*http.Response, error) {
	name, _ := r.data["LinkFilename"].(string)
	if name == "" {
		return nil, fmt.Errorf("lists: row %d is not a file", r.id)
	}
	target := r.list.lists.opener.Relative(url.PathEscape(r.list.Title()) + "/" + url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Translate", "f")
	return r.list.lists.opener.Open(ctx, req)
}

// Attachments returns the row's attachment collaborator handle.
func (r *Row) Attachments() *Attachments {
	if r.attachments == nil {
		r.attachments = &Attachments{
			opener: r.list.lists.opener,
			listID: r.list.id,
			rowID:  r.id,
		}
	}
	return r.attachments
}

// AsXML implements fields.RowRef. Rendering is cache-only; file content
// transclusion needs a context and goes through List.AsXML.
func (r *Row) AsXML(opts fields.XMLOptions) (*spxml.Element, error) {
	return r.render(context.Background(), RenderOptions{XMLOptions: opts})
}

func (r *Row) render(ctx context.Context, opts RenderOptions) (*spxml.Element, error) {
	fieldsEl := spxml.Out("fields")
	rowEl := spxml.Out("row", fieldsEl).WithAttr("id", strconv.Itoa(r.id))
	fctx := r.list.lists.bind(ctx)
	for _, name := range r.list.fieldOrder {
		value, ok := r.data[name]
		if !ok {
			continue
		}
		el, err := fields.AsXML(r.list.fieldSet[name], fctx, value, opts.XMLOptions)
		if err != nil {
			return nil, err
		}
		fieldsEl.Add(el)
	}
	if opts.TranscludeXML && r.IsFile() && r.data["DocIcon"] == "xml" {
		rowEl.Add(r.transcludeContent(ctx))
	}
	return rowEl, nil
}

func (r *Row) transcludeContent(ctx context.Context) *spxml.Element {
	resp, err := r.Open(ctx)
	if err != nil {
		return spxml.Out("content").WithAttr("missing", "true")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return spxml.Out("content").WithAttr("missing", "true")
	}
	content, err := spxml.ParseReader(resp.Body)
	if err != nil {
		return spxml.Out("content").WithAttr("missing", "true")
	}
	return spxml.Out("content", content)
}
