// Package users resolves site principals through the
// UserInformationList OData endpoint.
package users

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/lists"
	"github.com/ox-it/go-sharepoint/pkg/soap"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

const userPath = "_vti_bin/ListData.svc/UserInformationList(%d)"

// Users looks up site principals by id, caching results (including
// misses) for the lifetime of the object.
type Users struct {
	opener soap.Opener
	cache  map[int]*User
}

// New builds the principal lookup over an opener.
func New(opener soap.Opener) *Users {
	return &Users{opener: opener, cache: make(map[int]*User)}
}

// Get resolves a principal by id. An HTTP 404 from the service means
// the principal does not exist and is reported as a NotFoundError, not
// a transport error; the miss is cached.
func (u *Users) Get(ctx context.Context, id int) (*User, error) {
	if user, ok := u.cache[id]; ok {
		if user == nil {
			return nil, &lists.NotFoundError{Kind: "user", Key: strconv.Itoa(id)}
		}
		return user, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.opener.Relative(fmt.Sprintf(userPath, id)), nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.opener.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		u.cache[id] = nil
		return nil, &lists.NotFoundError{Kind: "user", Key: strconv.Itoa(id)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("users: lookup %d: unexpected status %s", id, resp.Status)
	}

	root, err := spxml.ParseReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("users: lookup %d: %w", id, err)
	}
	props := root.Descendant(spxml.NSMeta, "properties")
	if props == nil {
		return nil, fmt.Errorf("users: lookup %d: response carries no properties", id)
	}
	user := newUser(id, props)
	u.cache[id] = user
	return user, nil
}

// User is one resolved principal. Properties carries every
// data-namespace value from the service, keyed by local name; a
// null-marked property maps to "".
type User struct {
	ID         int
	Properties map[string]string

	props *spxml.Element
}

func newUser(id int, props *spxml.Element) *User {
	user := &User{ID: id, Properties: make(map[string]string, len(props.Children))}
	user.props = props
	for _, prop := range props.Children {
		if prop.Space != spxml.NSData {
			continue
		}
		value := prop.Text
		for _, a := range prop.Attrs {
			if a.Space == spxml.NSMeta && a.Local == "null" && a.Value == "true" {
				value = ""
			}
		}
		user.Properties[prop.Local] = value
	}
	return user
}

// Name is the principal's display name.
func (u *User) Name() string { return u.Properties["Name"] }

// UserRef implements fields.UserRef so a User can be assigned directly
// to user fields.
func (u *User) UserRef() fields.UserValue {
	return fields.UserValue{ID: u.ID, Name: u.Name()}
}

// AsXML renders the principal with its raw properties.
func (u *User) AsXML() *spxml.Element {
	el := spxml.Out("user").WithAttr("id", strconv.Itoa(u.ID))
	el.Children = append(el.Children, u.props.Children...)
	return el
}
