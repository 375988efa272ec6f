package lists

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/soap"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Attachments is the attachment collaborator for one row.
type Attachments struct {
	opener soap.Opener
	listID string
	rowID  int
}

// Attachment is one attachment URL on a row.
type Attachment struct {
	parent *Attachments
	URL    string
}

// All lists the row's attachment URLs.
func (a *Attachments) All(ctx context.Context) ([]*Attachment, error) {
	body := spxml.SP("GetAttachmentCollection",
		spxml.SPText("listName", a.listID),
		spxml.SPText("listItemID", strconv.Itoa(a.rowID)))
	response, err := a.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"GetAttachmentCollection")
	if err != nil {
		return nil, err
	}
	var out []*Attachment
	for _, el := range response.DescendantAll(spxml.NSSP, "Attachment") {
		out = append(out, &Attachment{parent: a, URL: strings.TrimSpace(el.Text)})
	}
	return out, nil
}

// Add uploads a new attachment and returns its server URL.
func (a *Attachments) Add(ctx context.Context, filename string, content []byte) (string, error) {
	body := spxml.SP("AddAttachment",
		spxml.SPText("listName", a.listID),
		spxml.SPText("listItemID", strconv.Itoa(a.rowID)),
		spxml.SPText("fileName", filename),
		spxml.SPText("attachment", base64.StdEncoding.EncodeToString(content)))
	response, err := a.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"AddAttachment")
	if err != nil {
		return "", err
	}
	result := response.Child(spxml.NSSP, "AddAttachmentResult")
	if result == nil {
		return "", nil
	}
	return strings.TrimSpace(result.Text), nil
}

// Delete removes an attachment by URL.
func (a *Attachments) Delete(ctx context.Context, url string) error {
	body := spxml.SP("DeleteAttachment",
		spxml.SPText("listName", a.listID),
		spxml.SPText("listItemID", strconv.Itoa(a.rowID)),
		spxml.SPText("url", url))
	_, err := a.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"DeleteAttachment")
	return err
}

// Open downloads the attachment content.
func (att *Attachment) Open(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, err
	}
	return att.parent.opener.Open(ctx, req)
}

// Delete removes the attachment from its row.
func (att *Attachment) Delete(ctx context.Context) error {
	return att.parent.Delete(ctx, att.URL)
}
