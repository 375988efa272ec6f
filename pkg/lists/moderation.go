package lists

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ox-it/go-sharepoint/pkg/fields"
	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Moderation is the status-transition sub-protocol of a moderated list.
// It reuses the batched update machinery with Moderate commands; the
// _ModerationStatus field itself is immutable through normal field
// access.
type Moderation struct {
	list *List
}

// RowsByStatus returns the cached rows currently in the given status.
func (m *Moderation) RowsByStatus(ctx context.Context, status fields.ModerationStatus) ([]*Row, error) {
	rows, err := m.list.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Row
	for _, row := range rows {
		if s, ok := row.data["_ModerationStatus"].(fields.ModerationStatus); ok && s == status {
			out = append(out, row)
		}
	}
	return out, nil
}

// SetStatus transitions the given rows to a new moderation status, with
// an optional moderation comment. Each row becomes one Moderate command
// in a single batch; successful commands reconcile the row's fields from
// the response, failed ones surface as UpdateFailedErrors without
// blocking their siblings.
func (m *Moderation) SetStatus(ctx context.Context, rows []*Row, status fields.ModerationStatus, comment string) error {
	if _, ok := fields.StatusByCode(status.Code); !ok {
		return fmt.Errorf("lists: unknown moderation status code %d", status.Code)
	}

	batch := spxml.Plain("Batch").
		WithAttr("ListVersion", "1").
		WithAttr("OnError", "Continue")
	rowsByBatchID := make(map[int]*Row, len(rows))
	for i, row := range rows {
		batchID := i + 1
		method := spxml.Plain("Method",
			spxml.PlainText("Field", strconv.Itoa(row.id)).WithAttr("Name", "ID"),
			spxml.PlainText("Field", strconv.Itoa(status.Code)).WithAttr("Name", "_ModerationStatus")).
			WithAttr("ID", strconv.Itoa(batchID)).
			WithAttr("Cmd", "Moderate")
		if comment != "" {
			method.Add(spxml.PlainText("Field", comment).WithAttr("Name", "_ModerationComment"))
		}
		rowsByBatchID[batchID] = row
		batch.Add(method)
	}
	if len(batch.Children) == 0 {
		return nil
	}
	return m.list.submitBatch(ctx, batch, rowsByBatchID)
}

// SetStatusCode is SetStatus with a numeric status code.
func (m *Moderation) SetStatusCode(ctx context.Context, rows []*Row, code int, comment string) error {
	status, ok := fields.StatusByCode(code)
	if !ok {
		return fmt.Errorf("lists: unknown moderation status code %d", code)
	}
	return m.SetStatus(ctx, rows, status, comment)
}
