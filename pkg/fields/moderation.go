package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// ModerationStatus is the named moderation state of a row. The numeric
// codes are fixed by the service contract.
type ModerationStatus struct {
	Code  int
	Label string
}

func (s ModerationStatus) String() string { return s.Label }

// The five moderation states the service defines.
var (
	StatusApproved  = ModerationStatus{0, "approved"}
	StatusRejected  = ModerationStatus{1, "rejected"}
	StatusPending   = ModerationStatus{2, "pending"}
	StatusDraft     = ModerationStatus{3, "draft"}
	StatusScheduled = ModerationStatus{4, "scheduled"}
)

var moderationStatuses = map[int]ModerationStatus{
	0: StatusApproved,
	1: StatusRejected,
	2: StatusPending,
	3: StatusDraft,
	4: StatusScheduled,
}

// StatusByCode returns the status for a numeric code.
func StatusByCode(code int) (ModerationStatus, bool) {
	s, ok := moderationStatuses[code]
	return s, ok
}

// StatusByLabel returns the status for a case-insensitive label.
func StatusByLabel(label string) (ModerationStatus, bool) {
	for _, s := range moderationStatuses {
		if strings.EqualFold(s.Label, label) {
			return s, true
		}
	}
	return ModerationStatus{}, false
}

// ModerationStatusField is the _ModerationStatus column. It is immutable
// through normal field access; status changes go through the moderation
// sub-protocol, which reconciles the new value back into the row.
type ModerationStatusField struct {
	fieldBase
}

func newModerationStatusField(schema *spxml.Element, _ Options) Field {
	f := &ModerationStatusField{fieldBase: newBase(schema, "moderationStatus")}
	f.def.GroupSize = 2
	f.def.Immutable = true
	return f
}

func (f *ModerationStatusField) ParseToken(group []string) (any, error) {
	if len(group) != 2 {
		return nil, fmt.Errorf("moderation group has %d tokens, want 2", len(group))
	}
	code, err := strconv.Atoi(group[0])
	if err != nil {
		return nil, fmt.Errorf("bad moderation code %q", group[0])
	}
	status, ok := StatusByCode(code)
	if !ok {
		return nil, fmt.Errorf("unknown moderation code %d", code)
	}
	return status, nil
}

func (f *ModerationStatusField) UnparseToken(value any) ([]string, error) {
	s, ok := value.(ModerationStatus)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected ModerationStatus, got %T", value)}
	}
	return []string{strconv.Itoa(s.Code), titleCase(s.Label)}, nil
}

func (f *ModerationStatusField) ValueXML(_ Context, value any, _ XMLOptions) (*spxml.Element, error) {
	s, ok := value.(ModerationStatus)
	if !ok {
		return nil, &ValidationError{Field: f.def.Name, Reason: fmt.Sprintf("expected ModerationStatus, got %T", value)}
	}
	return spxml.OutText("moderationStatus", s.Label).WithAttr("code", strconv.Itoa(s.Code)), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
