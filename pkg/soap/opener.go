// Package soap is the transport collaborator: a credentialed HTTP opener
// plus the fixed SOAP 1.1 framing the SharePoint services expect. The
// core packages only ever see the Opener interface; authentication lives
// in the round-tripper and never reaches them.
package soap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Opener is the boundary the data-access core talks through. PostSOAP
// wraps the body in an Envelope, posts it to a service path relative to
// the site, and returns the first element under the response Body. Open
// performs a plain HTTP exchange for non-SOAP endpoints (file downloads,
// ListData.svc).
type Opener interface {
	PostSOAP(ctx context.Context, relPath string, body *spxml.Element, soapAction string) (*spxml.Element, error)
	Open(ctx context.Context, req *http.Request) (*http.Response, error)
	Relative(path string) string
}

// Client implements Opener over net/http. The zero value is not usable;
// construct with NewClient.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a Client for the site at baseURL. A trailing slash is
// added when missing so relative service paths resolve under the site
// rather than beside it. httpClient may be nil, in which case
// http.DefaultClient is used; supply a client with a Timeout (and an
// auth round-tripper from this package) for production use.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("soap: parse base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}, nil
}

// Relative resolves a service path against the site base URL.
func (c *Client) Relative(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

// Open performs one HTTP round trip. The request URL should come from
// Relative; the configured http.Client bounds the exchange.
func (c *Client) Open(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.http.Do(req.WithContext(ctx))
}

// PostSOAP posts one SOAP 1.1 request and parses the response payload.
func (c *Client) PostSOAP(ctx context.Context, relPath string, body *spxml.Element, soapAction string) (*spxml.Element, error) {
	payload, err := spxml.Marshal(spxml.Envelope(body))
	if err != nil {
		return nil, fmt.Errorf("soap: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Relative(relPath), strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("soap: build request: %w", err)
	}
	req.Header.Set("Content-type", "text/xml; charset=utf-8")
	if soapAction != "" {
		req.Header.Set("SOAPAction", soapAction)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soap: post %s: %w", relPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soap: post %s: unexpected status %s", relPath, resp.Status)
	}

	root, err := spxml.ParseReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("soap: post %s: %w", relPath, err)
	}
	return spxml.BodyPayload(root)
}
