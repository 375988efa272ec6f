package fields_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ox-it/go-sharepoint/pkg/fields"
)

func TestTextMaximumLength(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Title", "Type": "Text", "MaxLength": "5"})

	if _, err := f.DescriptorSet(nil, "short"); err != nil {
		t.Fatalf("set within limit: %v", err)
	}

	_, err := f.DescriptorSet(nil, "too long a value")
	var verr *fields.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("set over limit: got %v, want a ValidationError", err)
	}
	if verr.Field != "Title" {
		t.Fatalf("ValidationError.Field = %q", verr.Field)
	}
}

func TestRichTextEqualityIgnoresEntityEncoding(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Body", "Type": "Note", "RichText": "TRUE"})

	if !f.Equal("a &amp; b", "a & b") {
		t.Fatal("entity-encoded value should compare equal to its decoded form")
	}
	if f.Equal("a & b", "a & c") {
		t.Fatal("different rich text values should not compare equal")
	}

	plain := buildField(t, reg, map[string]string{"Name": "Title", "Type": "Text"})
	if plain.Equal("a &amp; b", "a & b") {
		t.Fatal("plain text equality must stay literal")
	}
}

func TestURLSetRequiresKnownScheme(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Website", "Type": "URL"})

	got, err := f.DescriptorSet(nil, "https://example.org/")
	if err != nil {
		t.Fatalf("set https URL: %v", err)
	}
	if got != (fields.URLValue{Href: "https://example.org/"}) {
		t.Fatalf("stored value = %#v", got)
	}

	if _, err := f.DescriptorSet(nil, "ftp://example.org/"); err == nil {
		t.Fatal("expected rejection of an ftp URL")
	}
}

func TestURLParseSplitsHrefAndText(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Website", "Type": "URL"})

	got := mustParse(t, f, "http://example.org/, Example")
	want := fields.URLValue{Href: "http://example.org/", Text: "Example"}
	if got != want {
		t.Fatalf("decoded = %#v, want %#v", got, want)
	}
}

func TestUserSetAcceptedShapes(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "AssignedTo", "Type": "User"})

	got, err := f.DescriptorSet(nil, 7)
	if err != nil {
		t.Fatalf("set int: %v", err)
	}
	if got != (fields.UserValue{ID: 7}) {
		t.Fatalf("stored from int = %#v", got)
	}

	got, err = f.DescriptorSet(nil, fields.UserValue{ID: 7, Name: "Unit Test"})
	if err != nil {
		t.Fatalf("set UserValue: %v", err)
	}
	if got != (fields.UserValue{ID: 7, Name: "Unit Test"}) {
		t.Fatalf("stored from UserValue = %#v", got)
	}

	if _, err := f.DescriptorSet(nil, "someone"); err == nil {
		t.Fatal("expected rejection of a bare string")
	}
}

func TestLookupSetAcceptedShapes(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Project", "Type": "Lookup", "List": "{CCC}"})

	got, err := f.DescriptorSet(nil, 4)
	if err != nil {
		t.Fatalf("set int: %v", err)
	}
	if got != (fields.LookupValue{List: "{CCC}", ID: 4}) {
		t.Fatalf("stored from int = %#v", got)
	}

	// The field's own list wins over whatever the value carried.
	got, err = f.DescriptorSet(nil, fields.LookupValue{List: "{WRONG}", ID: 4, Title: "X"})
	if err != nil {
		t.Fatalf("set LookupValue: %v", err)
	}
	if got != (fields.LookupValue{List: "{CCC}", ID: 4, Title: "X"}) {
		t.Fatalf("stored from LookupValue = %#v", got)
	}
}

func TestNumberSetWidensIntegers(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Effort", "Type": "Number"})

	got, err := f.DescriptorSet(nil, 3)
	if err != nil {
		t.Fatalf("set int: %v", err)
	}
	if got != 3.0 {
		t.Fatalf("stored = %#v, want float64 3", got)
	}
}

func TestImmutableDefinitions(t *testing.T) {
	reg := fields.NewRegistry()
	for _, tc := range []struct {
		name     string
		wireType string
	}{
		{"ID", "Counter"},
		{"Score", "Calculated"},
		{"_ModerationStatus", "ModStat"},
	} {
		f := buildField(t, reg, map[string]string{"Name": tc.name, "Type": tc.wireType})
		if !f.Definition().Immutable {
			t.Errorf("%s field should be immutable", tc.wireType)
		}
	}
}

func TestMultiDescriptorSetWidensSlices(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Tags", "Type": "MultiChoice"})

	got, err := fields.DescriptorSet(f, nil, []string{"a", "b"})
	if err != nil {
		t.Fatalf("set []string: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("stored value mismatch (-want +got):\n%s", diff)
	}

	if _, err := fields.DescriptorSet(f, nil, "not-a-slice"); err == nil {
		t.Fatal("expected rejection of a scalar for a multi-valued field")
	}
}

func TestEqualMappedOverMultiValues(t *testing.T) {
	reg := fields.NewRegistry()
	f := buildField(t, reg, map[string]string{"Name": "Bodies", "Type": "MultiChoice"})

	if !fields.Equal(f, []any{"a", "b"}, []any{"a", "b"}) {
		t.Fatal("identical sequences should compare equal")
	}
	if fields.Equal(f, []any{"a"}, []any{"a", "b"}) {
		t.Fatal("different-length sequences should not compare equal")
	}
}
