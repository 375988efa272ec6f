package lists

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/soap"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Lists is the keyed collection of every list in a site. The collection
// is fetched lazily on first access and cached for the lifetime of the
// object; discard and recreate it to observe changes made by another
// process. It is not safe for concurrent use.
type Lists struct {
	opener   soap.Opener
	registry *fields.Registry

	all    []*List
	loaded bool
}

// New builds the collection over an opener. A nil registry gets the
// default built-in field type table.
func New(opener soap.Opener, registry *fields.Registry) *Lists {
	if registry == nil {
		registry = fields.NewRegistry()
	}
	return &Lists{opener: opener, registry: registry}
}

// All returns every list in the site, including the UserInfo list, which
// the collection endpoint omits and must be requested explicitly.
func (s *Lists) All(ctx context.Context) ([]*List, error) {
	if s.loaded {
		return s.all, nil
	}

	result, err := s.opener.PostSOAP(ctx, ServicePath, spxml.SP("GetListCollection"), "")
	if err != nil {
		return nil, err
	}
	container := result.Path([2]string{spxml.NSSP, "GetListCollectionResult"}, [2]string{spxml.NSSP, "Lists"})
	if container == nil {
		return nil, fmt.Errorf("lists: malformed GetListCollection response")
	}
	var all []*List
	for _, el := range container.ChildAll(spxml.NSSP, "List") {
		all = append(all, newList(s, el))
	}

	result, err = s.opener.PostSOAP(ctx, ServicePath, spxml.SP("GetList", spxml.SPText("listName", "UserInfo")), "")
	if err != nil {
		return nil, err
	}
	userInfo := result.Descendant(spxml.NSSP, "List")
	if userInfo == nil {
		return nil, fmt.Errorf("lists: malformed GetList response for UserInfo")
	}
	all = append(all, newList(s, userInfo))

	s.all, s.loaded = all, true
	return s.all, nil
}

// ByIndex returns the list at a numeric position in the collection.
func (s *Lists) ByIndex(ctx context.Context, i int) (*List, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(all) {
		return nil, &NotFoundError{Kind: "list", Key: strconv.Itoa(i)}
	}
	return all[i], nil
}

// Find resolves a list by UUID or title. UUID keys match
// case-insensitively with or without surrounding braces; anything that
// does not look like a UUID falls through to an exact title match.
func (s *Lists) Find(ctx context.Context, key string) (*List, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if id, ok := normalizeListID(key); ok {
		for _, l := range all {
			if l.ID() == id {
				return l, nil
			}
		}
		return nil, &NotFoundError{Kind: "list", Key: id}
	}
	for _, l := range all {
		if l.Title() == key {
			return l, nil
		}
	}
	return nil, &NotFoundError{Kind: "list", Key: key}
}

// Contains reports whether Find would succeed for the key.
func (s *Lists) Contains(ctx context.Context, key string) (bool, error) {
	_, err := s.Find(ctx, key)
	if err == nil {
		return true, nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

// Create adds a new list to the site. The name must not collide with an
// existing list and must not look like a UUID, which is reserved for
// identifiers. The template is either a numeric template id or one of
// the names in Templates.
func (s *Lists) Create(ctx context.Context, name, description, template string) (*List, error) {
	templateID, err := strconv.Atoi(template)
	if err != nil {
		id, ok := Templates[template]
		if !ok {
			return nil, &NotFoundError{Kind: "list template", Key: template}
		}
		templateID = id
	}
	if _, ok := normalizeListID(name); ok {
		return nil, fmt.Errorf("lists: cannot create a list with a UUID as a name")
	}
	exists, err := s.Contains(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("lists: list already exists: %q", name)
	}

	body := spxml.SP("AddList",
		spxml.SPText("listName", name),
		spxml.SPText("description", description),
		spxml.SPText("templateID", strconv.Itoa(templateID)))
	result, err := s.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"AddList")
	if err != nil {
		return nil, err
	}
	el := result.Path([2]string{spxml.NSSP, "AddListResult"}, [2]string{spxml.NSSP, "List"})
	if el == nil {
		return nil, fmt.Errorf("lists: malformed AddList response")
	}
	l := newList(s, el)
	s.all = append(s.all, l)
	return l, nil
}

// Remove deletes a list from the site and evicts it from the cached
// collection.
func (s *Lists) Remove(ctx context.Context, list *List) error {
	body := spxml.SP("DeleteList", spxml.SPText("listName", list.ID()))
	if _, err := s.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"DeleteList"); err != nil {
		return err
	}
	for i, l := range s.all {
		if l == list {
			s.all = append(s.all[:i], s.all[i+1:]...)
			break
		}
	}
	return nil
}

// AsXML renders the collection, or the named subset, as the structured
// output tree.
func (s *Lists) AsXML(ctx context.Context, names []string, opts RenderOptions) (*spxml.Element, error) {
	var selected []*List
	if names == nil {
		all, err := s.All(ctx)
		if err != nil {
			return nil, err
		}
		selected = all
	} else {
		for _, name := range names {
			l, err := s.Find(ctx, name)
			if err != nil {
				return nil, err
			}
			selected = append(selected, l)
		}
	}
	root := spxml.Out("lists")
	for _, l := range selected {
		el, err := l.AsXML(ctx, opts)
		if err != nil {
			return nil, err
		}
		root.Add(el)
	}
	return root, nil
}

// bind couples the collection with a request context so field
// descriptors can resolve cross-list lookups during one access.
func (s *Lists) bind(ctx context.Context) fields.Context {
	return resolveContext{ctx: ctx, lists: s}
}

type resolveContext struct {
	ctx   context.Context
	lists *Lists
}

func (rc resolveContext) ResolveRow(listID string, rowID int) (fields.RowRef, error) {
	l, err := rc.lists.Find(rc.ctx, listID)
	if err != nil {
		return nil, err
	}
	return l.RowByID(rc.ctx, rowID)
}

// normalizeListID canonicalizes a UUID-shaped key to the lowercased,
// braced form list identifiers use. Reports false for non-UUID keys.
func normalizeListID(key string) (string, bool) {
	id, err := uuid.Parse(key)
	if err != nil {
		return "", false
	}
	return "{" + id.String() + "}", true
}
