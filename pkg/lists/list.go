package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// List owns one list's schema snapshot, its materialized row cache, and
// the pending-deletion set. Settings, metadata, fields and rows all load
// lazily on first access and are held for the lifetime of the object.
// Row membership changes stage in memory until Save.
type List struct {
	lists *Lists
	id    string

	settings   *spxml.Element
	meta       map[string]string
	fieldOrder []string
	fieldSet   map[string]fields.Field

	rows       []*Row
	rowsLoaded bool
	rowsByID   map[int]*Row
	deleted    []*Row

	moderation *Moderation
}

func newList(lists *Lists, settings *spxml.Element) *List {
	l := &List{lists: lists, settings: settings}
	l.meta = settings.AttrMap()
	l.id = strings.ToLower(l.meta["ID"])
	return l
}

// ID is the list's lowercased, braced GUID. It is stable for the
// object's lifetime.
func (l *List) ID() string { return l.id }

// Title is the list's display title.
func (l *List) Title() string { return l.meta["Title"] }

// Meta exposes the raw settings attributes of the list.
func (l *List) Meta() map[string]string { return l.meta }

// Settings returns the full settings element, refetching it when the
// collection endpoint supplied only the attribute shell.
func (l *List) Settings(ctx context.Context) (*spxml.Element, error) {
	if l.settings != nil && len(l.settings.Children) > 0 {
		return l.settings, nil
	}
	body := spxml.SP("GetList", spxml.SPText("listName", l.id))
	result, err := l.lists.opener.PostSOAP(ctx, ServicePath, body, "")
	if err != nil {
		return nil, err
	}
	settings := result.Descendant(spxml.NSSP, "List")
	if settings == nil {
		return nil, fmt.Errorf("lists: malformed GetList response for %s", l.id)
	}
	l.settings = settings
	l.meta = settings.AttrMap()
	return l.settings, nil
}

// Fields returns the list's field implementations keyed by wire name.
// The schema snapshot is built once and immutable thereafter.
func (l *List) Fields(ctx context.Context) (map[string]fields.Field, error) {
	if l.fieldSet != nil {
		return l.fieldSet, nil
	}
	settings, err := l.Settings(ctx)
	if err != nil {
		return nil, err
	}
	container := settings.Child(spxml.NSSP, "Fields")
	if container == nil {
		return nil, fmt.Errorf("lists: list %s settings carry no field definitions", l.id)
	}
	fieldSet := make(map[string]fields.Field)
	var order []string
	for _, el := range container.ChildAll(spxml.NSSP, "Field") {
		f := l.lists.registry.Build(el)
		name := f.Definition().Name
		if _, dup := fieldSet[name]; !dup {
			order = append(order, name)
		}
		fieldSet[name] = f
	}
	l.fieldSet, l.fieldOrder = fieldSet, order
	return l.fieldSet, nil
}

// FieldOrder returns the field names in schema order.
func (l *List) FieldOrder(ctx context.Context) ([]string, error) {
	if _, err := l.Fields(ctx); err != nil {
		return nil, err
	}
	return l.fieldOrder, nil
}

// Rows returns the materialized row collection, fetching it on first
// access.
func (l *List) Rows(ctx context.Context) ([]*Row, error) {
	if l.rowsLoaded {
		return l.rows, nil
	}
	rows, err := l.fetchRows(ctx, "")
	if err != nil {
		return nil, err
	}
	l.rows, l.rowsLoaded = rows, true
	return l.rows, nil
}

// RowByID returns the cached row with the given server id.
func (l *List) RowByID(ctx context.Context, id int) (*Row, error) {
	if l.rowsByID == nil {
		rows, err := l.Rows(ctx)
		if err != nil {
			return nil, err
		}
		l.rowsByID = make(map[int]*Row, len(rows))
		for _, row := range rows {
			if row.id != 0 {
				l.rowsByID[row.id] = row
			}
		}
	}
	row, ok := l.rowsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "row", Key: fmt.Sprintf("%s/%d", l.id, id)}
	}
	return row, nil
}

// fetchRows requests every field of every row. The service rejects
// queries joining eight or more Lookup/User fields, so the view is split
// into field groups and the partial attribute sets merged by row id.
func (l *List) fetchRows(ctx context.Context, folder string) ([]*Row, error) {
	if _, err := l.Fields(ctx); err != nil {
		return nil, err
	}

	groups := [][]string{{}}
	lookupCount := 0
	for _, name := range l.fieldOrder {
		switch l.fieldSet[name].(type) {
		case *fields.LookupField, *fields.UserField:
			lookupCount++
		}
		if lookupCount >= 8 {
			lookupCount = 0
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], name)
	}

	attrsByID := make(map[string]map[string]string)
	var order []string
	for _, group := range groups {
		viewFields := spxml.Plain("ViewFields")
		for _, name := range group {
			viewFields.Add(spxml.Plain("FieldRef").WithAttr("Name", name))
		}
		queryOptions := spxml.Plain("QueryOptions", spxml.PlainText("Folder", folder))
		body := spxml.SP("GetListItems",
			spxml.SPText("listName", l.id),
			spxml.SPText("rowLimit", "100000"),
			spxml.SP("viewFields", viewFields),
			spxml.SP("queryOptions", queryOptions))
		result, err := l.lists.opener.PostSOAP(ctx, ServicePath, body, "")
		if err != nil {
			return nil, err
		}
		for _, rowEl := range result.DescendantAll(spxml.NSRow, "row") {
			id := rowEl.AttrValue("ows_ID")
			attrs, ok := attrsByID[id]
			if !ok {
				attrs = make(map[string]string)
				attrsByID[id] = attrs
				order = append(order, id)
			}
			for k, v := range rowEl.AttrMap() {
				attrs[k] = v
			}
		}
	}

	rows := make([]*Row, 0, len(order))
	for _, id := range order {
		row, err := newRowFromAttrs(l, attrsByID[id])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append stages a new row for the list. It accepts either a field
// name → value map (applied through the typed setters, so every set
// field starts dirty) or a *Row previously constructed for this list.
func (l *List) Append(ctx context.Context, value any) (*Row, error) {
	var row *Row
	switch v := value.(type) {
	case map[string]any:
		var err error
		row, err = newRowFromValues(ctx, l, v)
		if err != nil {
			return nil, err
		}
	case *Row:
		if v.list != l {
			return nil, fmt.Errorf("lists: row belongs to list %s, not %s", v.list.id, l.id)
		}
		row = v
	default:
		return nil, fmt.Errorf("lists: row must be a map[string]any or a *Row, not %T", value)
	}
	if _, err := l.Rows(ctx); err != nil {
		return nil, err
	}
	l.rows = append(l.rows, row)
	return row, nil
}

// AppendFrom copies every row of another list into this one, carrying
// over the mutable fields the two schemas share.
func (l *List) AppendFrom(ctx context.Context, other *List) error {
	rows, err := other.Rows(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		values, err := row.CopyValues(ctx, l)
		if err != nil {
			return err
		}
		if _, err := l.Append(ctx, values); err != nil {
			return err
		}
	}
	return nil
}

// Remove stages a row for deletion. The row leaves the materialized
// collection immediately but is only deleted server-side by Save.
func (l *List) Remove(row *Row) {
	for i, r := range l.rows {
		if r == row {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			break
		}
	}
	for _, r := range l.deleted {
		if r == row {
			return
		}
	}
	l.deleted = append(l.deleted, row)
}

// Delete removes the whole list from the site.
func (l *List) Delete(ctx context.Context) error {
	return l.lists.Remove(ctx, l)
}

// Moderation returns the moderation sub-protocol handle. The list must
// have moderation enabled.
func (l *List) Moderation() (*Moderation, error) {
	if l.meta["EnableModeration"] != "True" {
		return nil, fmt.Errorf("lists: moderation not enabled on list %s", l.id)
	}
	if l.moderation == nil {
		l.moderation = &Moderation{list: l}
	}
	return l.moderation, nil
}

// RenderOptions controls structured output rendering for lists and rows.
type RenderOptions struct {
	fields.XMLOptions

	// IncludeFieldDefinitions and IncludeListData select the two halves
	// of a list's rendering.
	IncludeFieldDefinitions bool
	IncludeListData         bool

	// TranscludeXML inlines the parsed content of XML file rows.
	TranscludeXML bool
}

// AsXML renders the list as the structured output tree.
func (l *List) AsXML(ctx context.Context, opts RenderOptions) (*spxml.Element, error) {
	el := spxml.Out("list").
		WithAttr("name", l.Title()).
		WithAttr("id", l.id)

	if opts.IncludeFieldDefinitions {
		if _, err := l.Fields(ctx); err != nil {
			return nil, err
		}
		defs := spxml.Out("fields")
		for _, name := range l.fieldOrder {
			f := l.fieldSet[name]
			def := f.Definition()
			fieldEl := spxml.Out("field").
				WithAttr("name", def.Name).
				WithAttr("display_name", def.DisplayName).
				WithAttr("sharepoint_type", def.WireType).
				WithAttr("type", def.TypeName)
			for k, v := range f.ExtraDefinition() {
				fieldEl.SetAttr(k, v)
			}
			if def.Description != "" {
				fieldEl.SetAttr("description", def.Description)
			}
			if def.Multi {
				fieldEl.SetAttr("multi", "true")
			} else {
				fieldEl.SetAttr("multi", "false")
			}
			defs.Add(fieldEl)
		}
		el.Add(defs)
	}

	if opts.IncludeListData {
		rows, err := l.Rows(ctx)
		if err != nil {
			return nil, err
		}
		rowsEl := spxml.Out("rows")
		for _, row := range rows {
			rowEl, err := row.render(ctx, opts)
			if err != nil {
				return nil, err
			}
			rowsEl.Add(rowEl)
		}
		el.Add(rowsEl)
	}
	return el, nil
}
