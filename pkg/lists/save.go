package lists

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/ox-it/go-sharepoint/pkg/spxml"
)

// Save pushes every staged change to the server in one combined batch:
// one create/update command per row with a non-empty change-set,
// followed by one delete command per row staged for removal, each tagged
// with a sequential batch id starting at 1. An empty batch issues no
// network call.
//
// The server applies commands independently and reports a result per
// command; Save reconciles every successful result (clearing the row's
// change-set and applying the server's field values, or confirming a
// deletion) even when sibling commands fail, and returns the failures
// joined. On full success the pending-deletion set is empty and no row
// is dirty; anything else is a reconciliation bug and panics.
func (l *List) Save(ctx context.Context) error {
	batch := spxml.Plain("Batch").
		WithAttr("ListVersion", "1").
		WithAttr("OnError", "Continue")
	rowsByBatchID := make(map[int]*Row)
	batchID := 1

	for _, row := range l.rows {
		method, err := row.BatchMethod()
		if err != nil {
			return err
		}
		if method == nil {
			continue
		}
		method.SetAttr("ID", strconv.Itoa(batchID))
		rowsByBatchID[batchID] = row
		batch.Add(method)
		batchID++
	}

	for _, row := range l.deleted {
		method := spxml.Plain("Method",
			spxml.PlainText("Field", strconv.Itoa(row.id)).WithAttr("Name", "ID")).
			WithAttr("ID", strconv.Itoa(batchID)).
			WithAttr("Cmd", "Delete")
		rowsByBatchID[batchID] = row
		batch.Add(method)
		batchID++
	}

	if len(batch.Children) == 0 {
		return nil
	}

	if err := l.submitBatch(ctx, batch, rowsByBatchID); err != nil {
		return err
	}

	if len(l.deleted) != 0 {
		panic(fmt.Sprintf("lists: %s: save left %d rows in the pending-deletion set", l.id, len(l.deleted)))
	}
	for _, row := range l.rows {
		if len(row.changed) != 0 {
			panic(fmt.Sprintf("lists: %s: save left row %d with a non-empty change-set", l.id, row.id))
		}
	}
	return nil
}

// submitBatch posts one UpdateListItems request and reconciles every
// per-command result back into the rows it came from. Failed commands
// become UpdateFailedErrors but never stop the reconciliation of their
// siblings.
func (l *List) submitBatch(ctx context.Context, batch *spxml.Element, rowsByBatchID map[int]*Row) error {
	body := spxml.SP("UpdateListItems",
		spxml.SPText("listName", l.id),
		spxml.SP("updates", batch))
	response, err := l.lists.opener.PostSOAP(ctx, ServicePath, body, soapActionPrefix+"UpdateListItems")
	if err != nil {
		return err
	}

	var failures []error
	for _, result := range response.DescendantAll(spxml.NSSP, "Result") {
		idText, command, _ := strings.Cut(result.AttrValue("ID"), ",")
		batchID, err := strconv.Atoi(idText)
		if err != nil {
			glog.Warningf("lists: %s: unparseable batch result id %q", l.id, result.AttrValue("ID"))
			continue
		}
		row, ok := rowsByBatchID[batchID]
		if !ok {
			glog.Warningf("lists: %s: batch result for unknown command %d", l.id, batchID)
			continue
		}

		if code := result.Child(spxml.NSSP, "ErrorCode"); code != nil {
			if text := strings.TrimSpace(code.Text); text != "0x00000000" {
				errorText := ""
				if el := result.Child(spxml.NSSP, "ErrorText"); el != nil {
					errorText = strings.TrimSpace(el.Text)
				}
				failures = append(failures, &UpdateFailedError{
					Row:     row,
					Command: command,
					Code:    text,
					Text:    errorText,
				})
				continue
			}
		}

		switch command {
		case "Update", "New", "Moderate":
			rowEl := result.Descendant(spxml.NSRow, "row")
			if rowEl == nil {
				return fmt.Errorf("lists: %s: batch result %d carries no row data", l.id, batchID)
			}
			if err := row.update(rowEl.AttrMap(), true); err != nil {
				return err
			}
		case "Delete":
			for i, r := range l.deleted {
				if r == row {
					l.deleted = append(l.deleted[:i], l.deleted[i+1:]...)
					break
				}
			}
		}
	}
	return errors.Join(failures...)
}
