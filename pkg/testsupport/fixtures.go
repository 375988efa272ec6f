// Package testsupport provides a scripted transport fake and canned
// SOAP response builders shared by the package tests.
package testsupport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Call records one SOAP exchange made through the fake opener.
type Call struct {
	Path   string
	Action string
	Body   *spxml.Element
}

// FakeOpener implements soap.Opener over a queue of canned response
// payloads. Each PostSOAP pops the next payload; running past the queue
// is a test authoring error and fails loudly.
type FakeOpener struct {
	// Responses holds payload XML documents, one per expected PostSOAP,
	// in call order.
	Responses []string

	// OpenFunc, when set, serves plain HTTP opens. The default answers
	// 404 with an empty body.
	OpenFunc func(req *http.Request) (*http.Response, error)

	Calls []Call
}

func (f *FakeOpener) PostSOAP(_ context.Context, relPath string, body *spxml.Element, soapAction string) (*spxml.Element, error) {
	f.Calls = append(f.Calls, Call{Path: relPath, Action: soapAction, Body: body})
	if len(f.Responses) == 0 {
		return nil, fmt.Errorf("testsupport: unexpected SOAP call %d to %s", len(f.Calls), relPath)
	}
	payload := f.Responses[0]
	f.Responses = f.Responses[1:]
	return spxml.Parse([]byte(payload))
}

func (f *FakeOpener) Open(_ context.Context, req *http.Request) (*http.Response, error) {
	if f.OpenFunc != nil {
		return f.OpenFunc(req)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func (f *FakeOpener) Relative(path string) string {
	return "https://sharepoint.example.org/site/" + path
}

// ListStub describes one list for canned collection/settings responses.
type ListStub struct {
	ID        string
	Title     string
	Moderated bool
}

func (s ListStub) attrs() string {
	moderation := "False"
	if s.Moderated {
		moderation = "True"
	}
	return fmt.Sprintf(`ID=%q Title=%q EnableModeration=%q`, s.ID, s.Title, moderation)
}

// ListCollectionResponse builds a GetListCollection payload.
func ListCollectionResponse(stubs ...ListStub) string {
	var sb strings.Builder
	sb.WriteString(`<GetListCollectionResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"><GetListCollectionResult><Lists>`)
	for _, s := range stubs {
		fmt.Fprintf(&sb, `<List %s/>`, s.attrs())
	}
	sb.WriteString(`</Lists></GetListCollectionResult></GetListCollectionResponse>`)
	return sb.String()
}

// FieldDef builds one schema Field element. Extra attributes beyond
// Name/Type/DisplayName are passed through verbatim.
func FieldDef(name, wireType string, extra map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<Field Name=%q Type=%q DisplayName=%q`, name, wireType, name)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, ` %s=%q`, k, escapeAttr(extra[k]))
	}
	sb.WriteString(`/>`)
	return sb.String()
}

// GetListResponse builds a GetList payload carrying the full field
// schema.
func GetListResponse(stub ListStub, fieldDefs ...string) string {
	return fmt.Sprintf(
		`<GetListResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"><GetListResult><List %s><Fields>%s</Fields></List></GetListResult></GetListResponse>`,
		stub.attrs(), strings.Join(fieldDefs, ""))
}

// ListItemsResponse builds a GetListItems payload from raw row
// attribute maps (keys already carrying the ows_ prefix).
func ListItemsResponse(rows ...map[string]string) string {
	var sb strings.Builder
	sb.WriteString(`<GetListItemsResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"><GetListItemsResult>`)
	sb.WriteString(`<listitems xmlns:rs="urn:schemas-microsoft-com:rowset" xmlns:z="#RowsetSchema"><rs:data>`)
	for _, attrs := range rows {
		sb.WriteString(`<z:row`)
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, ` %s=%q`, k, escapeAttr(attrs[k]))
		}
		sb.WriteString(`/>`)
	}
	sb.WriteString(`</rs:data></listitems></GetListItemsResult></GetListItemsResponse>`)
	return sb.String()
}

// ResultStub describes one per-command result in a canned
// UpdateListItems payload.
type ResultStub struct {
	// ID is the combined "batchID,Command" result tag.
	ID        string
	ErrorCode string
	ErrorText string
	Row       map[string]string
}

// UpdateResultsResponse builds an UpdateListItems payload.
func UpdateResultsResponse(results ...ResultStub) string {
	var sb strings.Builder
	sb.WriteString(`<UpdateListItemsResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/"><UpdateListItemsResult><Results>`)
	for _, r := range results {
		code := r.ErrorCode
		if code == "" {
			code = "0x00000000"
		}
		fmt.Fprintf(&sb, `<Result ID=%q><ErrorCode>%s</ErrorCode>`, r.ID, code)
		if r.ErrorText != "" {
			fmt.Fprintf(&sb, `<ErrorText>%s</ErrorText>`, r.ErrorText)
		}
		if r.Row != nil {
			sb.WriteString(`<z:row xmlns:z="#RowsetSchema"`)
			keys := make([]string, 0, len(r.Row))
			for k := range r.Row {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, ` %s=%q`, k, escapeAttr(r.Row[k]))
			}
			sb.WriteString(`/>`)
		}
		sb.WriteString(`</Result>`)
	}
	sb.WriteString(`</Results></UpdateListItemsResult></UpdateListItemsResponse>`)
	return sb.String()
}

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
