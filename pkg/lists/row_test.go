package lists_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/lists"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
	"github.com/ox-it/go-sharepoint/pkg/testsupport"
)

// loadedTasks stands up a site whose Tasks list has the given rows
// already materialized.
func loadedTasks(t *testing.T, rows ...map[string]string) (*lists.List, *testsupport.FakeOpener) {
	t.Helper()
	site, fake := newSite(t,
		testsupport.ListCollectionResponse(tasksStub(), projectsStub()),
		userInfoResponse(),
		tasksSettingsResponse(),
		testsupport.ListItemsResponse(rows...))
	ctx := context.Background()
	list, err := site.Find(ctx, "Tasks")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := list.Rows(ctx); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return list, fake
}

func TestRowDecodesFieldValues(t *testing.T) {
	list, _ := loadedTasks(t, map[string]string{
		"ows_ID":                "1",
		"ows_Title":             "Buy milk",
		"ows_Priority":          "High",
		"ows_Complete":          "0",
		"ows_AssignedTo":        "7;#Unit Test",
		"ows__ModerationStatus": "0;#Approved",
	})
	ctx := context.Background()

	row, err := list.RowByID(ctx, 1)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}
	if row.ID() != 1 || row.Name() != "Buy milk" {
		t.Fatalf("row = id %d, name %q", row.ID(), row.Name())
	}

	got, err := row.Get(ctx, "AssignedTo")
	if err != nil {
		t.Fatalf("get AssignedTo: %v", err)
	}
	if got != (fields.UserValue{ID: 7, Name: "Unit Test"}) {
		t.Fatalf("AssignedTo = %#v", got)
	}

	if got, err := row.Get(ctx, "Project"); err != nil || got != nil {
		t.Fatalf("unset scalar = %v, %v, want nil", got, err)
	}

	if _, err := row.Get(ctx, "NoSuchField"); err == nil {
		t.Fatal("expected a lookup error for an unknown field")
	}
}

func TestRowChangeTracking(t *testing.T) {
	list, _ := loadedTasks(t, map[string]string{
		"ows_ID": "1", "ows_Title": "Buy milk", "ows_Priority": "High",
	})
	ctx := context.Background()
	row, err := list.RowByID(ctx, 1)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}

	// Assigning the current value is a no-op.
	if err := row.Set("Title", "Buy milk"); err != nil {
		t.Fatalf("set same value: %v", err)
	}
	if got := row.Changed(); len(got) != 0 {
		t.Fatalf("changed after identical set = %v", got)
	}

	if err := row.Set("Title", "Buy oat milk"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := row.Set("Complete", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []string{"Title", "Complete"}
	if diff := cmp.Diff(want, row.Changed()); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
}

func TestRowRejectsImmutableSets(t *testing.T) {
	list, _ := loadedTasks(t, map[string]string{"ows_ID": "1", "ows_Title": "Buy milk"})
	row, err := list.RowByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}

	for _, name := range []string{"ID", "_ModerationStatus"} {
		err := row.Set(name, 99)
		if !errors.Is(err, fields.ErrImmutable) {
			t.Errorf("set %s: got %v, want ErrImmutable", name, err)
		}
	}
	if got := row.Changed(); len(got) != 0 {
		t.Fatalf("rejected sets dirtied the row: %v", got)
	}
}

func TestRowBatchMethodDerivation(t *testing.T) {
	list, _ := loadedTasks(t, map[string]string{"ows_ID": "1", "ows_Title": "Buy milk"})
	ctx := context.Background()
	row, err := list.RowByID(ctx, 1)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}

	// A clean row contributes no command.
	method, err := row.BatchMethod()
	if err != nil || method != nil {
		t.Fatalf("clean row method = %v, %v", method, err)
	}

	if err := row.Set("Title", "Buy oat milk"); err != nil {
		t.Fatalf("set: %v", err)
	}
	method, err = row.BatchMethod()
	if err != nil {
		t.Fatalf("method: %v", err)
	}
	if got := method.AttrValue("Cmd"); got != "Update" {
		t.Fatalf("Cmd = %q, want Update", got)
	}
	assertFieldText(t, method, "ID", "1")
	assertFieldText(t, method, "Title", "Buy oat milk")

	// A never-persisted row derives a New command.
	fresh, err := list.Append(ctx, map[string]any{"Title": "New task"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	method, err = fresh.BatchMethod()
	if err != nil {
		t.Fatalf("method: %v", err)
	}
	if got := method.AttrValue("Cmd"); got != "New" {
		t.Fatalf("Cmd = %q, want New", got)
	}
	assertFieldText(t, method, "ID", "New")
}

func assertFieldText(t *testing.T, method *spxml.Element, name, want string) {
	t.Helper()
	for _, el := range method.ChildAll("", "Field") {
		if el.AttrValue("Name") == name {
			if el.Text != want {
				t.Fatalf("Field %s = %q, want %q", name, el.Text, want)
			}
			return
		}
	}
	t.Fatalf("method has no Field named %s", name)
}

func TestRowValuesSkipsImmutableFields(t *testing.T) {
	list, _ := loadedTasks(t, map[string]string{
		"ows_ID": "1", "ows_Title": "Buy milk", "ows__ModerationStatus": "0;#Approved",
	})
	row, err := list.RowByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}

	got := row.Values(false, nil)
	if _, ok := got["ID"]; ok {
		t.Fatal("Values(false) leaked the immutable ID field")
	}
	if got["Title"] != "Buy milk" {
		t.Fatalf("Title = %#v", got["Title"])
	}

	all := row.Values(true, nil)
	if all["ID"] != 1 {
		t.Fatalf("Values(true) ID = %#v", all["ID"])
	}
}

func TestAppendRejectsForeignRows(t *testing.T) {
	list, _ := loadedTasks(t)
	if _, err := list.Append(context.Background(), 42); err == nil {
		t.Fatal("expected rejection of a non-row value")
	}
}

func TestCopyValuesDropsBookkeepingColumns(t *testing.T) {
	sourceStub := testsupport.ListStub{ID: "{33333333-3333-3333-3333-333333333333}", Title: "Source"}
	archiveStub := testsupport.ListStub{ID: "{44444444-4444-4444-4444-444444444444}", Title: "Archive"}
	shared := []string{
		testsupport.FieldDef("ID", "Counter", nil),
		testsupport.FieldDef("Title", "Text", nil),
		testsupport.FieldDef("Priority", "Choice", nil),
		testsupport.FieldDef("Attachments", "Text", nil),
		testsupport.FieldDef("ContentType", "Text", nil),
		testsupport.FieldDef("_ModerationStatus", "ModStat", nil),
	}
	site, _ := newSite(t,
		testsupport.ListCollectionResponse(sourceStub, archiveStub),
		userInfoResponse(),
		testsupport.GetListResponse(sourceStub,
			append(shared, testsupport.FieldDef("Owner", "Text", nil))...),
		testsupport.ListItemsResponse(map[string]string{
			"ows_ID": "7", "ows_Title": "Quarterly report", "ows_Priority": "High",
			"ows_Attachments": "1", "ows_ContentType": "Document", "ows_Owner": "alice",
		}),
		testsupport.GetListResponse(archiveStub,
			append(shared, testsupport.FieldDef("Archived", "Text", nil))...),
		testsupport.ListItemsResponse())
	ctx := context.Background()

	source, err := site.Find(ctx, "Source")
	if err != nil {
		t.Fatalf("find source: %v", err)
	}
	archive, err := site.Find(ctx, "Archive")
	if err != nil {
		t.Fatalf("find archive: %v", err)
	}
	rows, err := source.Rows(ctx)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	// Only the mutable columns the two schemas share carry over:
	// hidden bookkeeping columns, underscore-prefixed columns and the
	// immutable ID are dropped.
	values, err := rows[0].CopyValues(ctx, archive)
	if err != nil {
		t.Fatalf("copy values: %v", err)
	}
	want := map[string]any{"Title": "Quarterly report", "Priority": "High"}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("copied values mismatch (-want +got):\n%s", diff)
	}

	if err := archive.AppendFrom(ctx, source); err != nil {
		t.Fatalf("append from: %v", err)
	}
	staged, err := archive.Rows(ctx)
	if err != nil {
		t.Fatalf("archive rows: %v", err)
	}
	if len(staged) != 1 || staged[0].ID() != 0 {
		t.Fatalf("staged %d rows, want one unsaved row", len(staged))
	}
	changed := append([]string(nil), staged[0].Changed()...)
	sort.Strings(changed)
	if diff := cmp.Diff([]string{"Priority", "Title"}, changed); diff != "" {
		t.Fatalf("staged change-set mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupResolvesAcrossLists(t *testing.T) {
	site, _ := newSite(t,
		testsupport.ListCollectionResponse(tasksStub(), projectsStub()),
		userInfoResponse(),
		tasksSettingsResponse(),
		testsupport.ListItemsResponse(map[string]string{
			"ows_ID": "1", "ows_Title": "Buy milk", "ows_Project": "3;#Website",
		}),
		projectsSettingsResponse(),
		testsupport.ListItemsResponse(map[string]string{
			"ows_ID": "3", "ows_Title": "Website",
		}))
	ctx := context.Background()

	tasks, err := site.Find(ctx, "Tasks")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	rows, err := tasks.Rows(ctx)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	got, err := rows[0].Get(ctx, "Project")
	if err != nil {
		t.Fatalf("get Project: %v", err)
	}
	resolved, ok := got.(*lists.Row)
	if !ok {
		t.Fatalf("resolved lookup = %T, want *lists.Row", got)
	}
	if resolved.ID() != 3 || resolved.Name() != "Website" {
		t.Fatalf("resolved row = id %d, name %q", resolved.ID(), resolved.Name())
	}

	// The resolved row is the live cached object, not a copy.
	direct, err := site.Find(ctx, "Projects")
	if err != nil {
		t.Fatalf("find projects: %v", err)
	}
	cached, err := direct.RowByID(ctx, 3)
	if err != nil {
		t.Fatalf("row by id: %v", err)
	}
	if resolved != cached {
		t.Fatal("lookup resolution returned a different object than the row cache")
	}
}
