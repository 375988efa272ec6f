package spxml

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBuildsNamespacedTree(t *testing.T) {
	doc := `<GetListResponse xmlns="http://schemas.microsoft.com/sharepoint/soap/">` +
		`<GetListResult><List ID="{ABC}" Title="Tasks"><Fields>` +
		`<Field Name="Title" Type="Text"/></Fields></List></GetListResult></GetListResponse>`

	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Space != NSSP || root.Local != "GetListResponse" {
		t.Fatalf("root = {%s}%s, want SP GetListResponse", root.Space, root.Local)
	}

	list := root.Path([2]string{NSSP, "GetListResult"}, [2]string{NSSP, "List"})
	if list == nil {
		t.Fatal("Path did not reach the List element")
	}
	want := map[string]string{"ID": "{ABC}", "Title": "Tasks"}
	if diff := cmp.Diff(want, list.AttrMap()); diff != "" {
		t.Fatalf("List attrs mismatch (-want +got):\n%s", diff)
	}

	field := root.Descendant(NSSP, "Field")
	if field == nil || field.AttrValue("Name") != "Title" {
		t.Fatalf("Descendant Field = %+v, want Name=Title", field)
	}
}

func TestParsePrefixedNamespaces(t *testing.T) {
	doc := `<listitems xmlns:rs="urn:schemas-microsoft-com:rowset" xmlns:z="#RowsetSchema">` +
		`<rs:data><z:row ows_ID="1"/><z:row ows_ID="2"/></rs:data></listitems>`

	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows := root.DescendantAll(NSRow, "row")
	if len(rows) != 2 {
		t.Fatalf("got %d z:row elements, want 2", len(rows))
	}
	if got := rows[1].AttrValue("ows_ID"); got != "2" {
		t.Fatalf("second row ows_ID = %q, want 2", got)
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected an error for an empty document")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	el := SP("GetList", SPText("listName", "Tasks")).WithAttr("mode", "full")

	raw, err := Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Parse(raw)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.Space != NSSP || back.Local != "GetList" {
		t.Fatalf("reparsed root = {%s}%s", back.Space, back.Local)
	}
	if got := back.AttrValue("mode"); got != "full" {
		t.Fatalf("mode attr = %q, want full", got)
	}
	name := back.Child(NSSP, "listName")
	if name == nil || name.Text != "Tasks" {
		t.Fatalf("listName child = %+v, want text Tasks", name)
	}
}

func TestSetAttrReplaces(t *testing.T) {
	el := Plain("Method").WithAttr("Cmd", "New")
	el.SetAttr("Cmd", "Update")
	if len(el.Attrs) != 1 || el.AttrValue("Cmd") != "Update" {
		t.Fatalf("attrs = %+v, want single Cmd=Update", el.Attrs)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	raw, err := Marshal(Envelope(SP("GetListCollection")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), "GetListCollection") {
		t.Fatalf("marshalled envelope lacks payload: %s", raw)
	}

	root, err := Parse(raw)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	payload, err := BodyPayload(root)
	if err != nil {
		t.Fatalf("body payload: %v", err)
	}
	if payload.Space != NSSP || payload.Local != "GetListCollection" {
		t.Fatalf("payload = {%s}%s", payload.Space, payload.Local)
	}
}

func TestBodyPayloadFramingErrors(t *testing.T) {
	cases := []struct {
		name string
		root *Element
	}{
		{"not an envelope", SP("GetListResponse")},
		{"no body", New(NSSOAP, "Envelope")},
		{"empty body", New(NSSOAP, "Envelope", New(NSSOAP, "Body"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BodyPayload(tc.root); err == nil {
				t.Fatal("expected a framing error")
			}
		})
	}
}
