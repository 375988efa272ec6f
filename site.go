// Package sharepoint is the entry point for the typed SharePoint client:
// a Site wires the credentialed transport to the lists and users
// collaborators.
//
// Construction composes the pieces the way a caller usually wants them:
//
//	client, err := soap.NewClient(siteURL, soap.BasicAuth(user, password))
//	site := sharepoint.New(client)
//	list, err := site.Lists().Find(ctx, "Announcements")
package sharepoint

import (
	"context"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/lists"
	"github.com/ox-it/go-sharepoint/pkg/soap"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
	"github.com/ox-it/go-sharepoint/pkg/users"
)

// Option adjusts Site construction.
type Option func(*Site)

// WithFieldRegistry supplies a custom field type registry; the default
// is the built-in table.
func WithFieldRegistry(registry *fields.Registry) Option {
	return func(s *Site) { s.registry = registry }
}

// Site is one SharePoint site. Collaborators are created lazily and
// cached for the lifetime of the Site.
type Site struct {
	opener   soap.Opener
	registry *fields.Registry

	lists *lists.Lists
	users *users.Users
}

// New builds a Site over a transport opener.
func New(opener soap.Opener, opts ...Option) *Site {
	s := &Site{opener: opener}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lists returns the site's list collection.
func (s *Site) Lists() *lists.Lists {
	if s.lists == nil {
		s.lists = lists.New(s.opener, s.registry)
	}
	return s.lists
}

// Users returns the site's principal lookup.
func (s *Site) Users() *users.Users {
	if s.users == nil {
		s.users = users.New(s.opener)
	}
	return s.users
}

// AsXML renders the site tree: its lists, or the named subset.
func (s *Site) AsXML(ctx context.Context, listNames []string, opts lists.RenderOptions) (*spxml.Element, error) {
	listsEl, err := s.Lists().AsXML(ctx, listNames, opts)
	if err != nil {
		return nil, err
	}
	return spxml.Out("site", listsEl), nil
}
