// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/unclebandit/mailmerge-backend/internal/attachment"
	"github.com/unclebandit/mailmerge-backend/internal/events"
	"github.com/unclebandit/mailmerge-backend/internal/mailer"
	"github.com/unclebandit/mailmerge-backend/internal/model"
	"github.com/unclebandit/mailmerge-backend/internal/render"
	"github.com/unclebandit/mailmerge-backend/internal/repository"
	"github.com/unclebandit/mailmerge-backend/internal/sheet"
)

// AttachmentColumns are the sheet columns that may carry a file reference to
// embed in the outgoing mail.
var AttachmentColumns = []string{"document_file", "CertificateFile"}

const defaultConcurrency = 8

// Dispatcher runs one campaign over an uploaded sheet: fixes the batch
// number, fans rows out, and for each row checks duplicates, renders, sends
// with retry, records the outcome and broadcasts it.
type Dispatcher struct {
	Ledger       repository.SentMailRepositoryInterface
	Sender       mailer.Sender
	Attachments  attachment.Resolver
	Broadcasters []events.Broadcaster

	// Concurrency bounds the row fan-out; 0 means defaultConcurrency.
	Concurrency int
}

// DispatchRequest is one campaign invocation: the raw upload plus the
// subject/body template applied to every row.
type DispatchRequest struct {
	Subject   string
	Body      string
	SheetData []byte
	Filename  string
}

// DispatchResult holds the per-row outcomes in sheet order plus the summary
// shown to the caller.
type DispatchResult struct {
	Batch    int
	Statuses []model.RowOutcome
	Message  string
}

// Dispatch processes every data row of the upload. Whole-invocation
// failures (bad sheet, missing header, batch lookup) return an error; row
// failures only mark their own outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	sh, err := sheet.Extract(req.SheetData, req.Filename, sheet.EmailColumn)
	if err != nil {
		return nil, err
	}

	maxBatch, err := d.Ledger.MaxBatch()
	if err != nil {
		return nil, err
	}
	batch := maxBatch + 1

	invocation := uuid.NewString()
	log.Printf("dispatch %s: batch %d, %d data rows", invocation, batch, len(sh.Rows))

	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	// Outcomes indexed by sheet position; skipped rows stay nil.
	outcomes := make([]*model.RowOutcome, len(sh.Rows))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	// Rows sharing a (recipient, subject) key are chained in sheet order so
	// the earliest row wins the duplicate check no matter how the pool
	// schedules them. Distinct keys still run fully in parallel.
	prevDone := make(map[string]chan struct{})

	for i, row := range sh.Rows {
		if row == nil {
			continue
		}
		key := row[sheet.EmailColumn] + "\x00" + req.Subject
		prev := prevDone[key]
		done := make(chan struct{})
		prevDone[key] = done

		wg.Add(1)
		sem <- struct{}{} // acquired in sheet order, so a chained row never starves its predecessor
		go func(seq int, row sheet.Row, prev <-chan struct{}, done chan<- struct{}) {
			defer wg.Done()
			defer close(done)
			defer func() { <-sem }()
			if prev != nil {
				<-prev
			}
			outcomes[seq-1] = d.processRow(ctx, row, req, batch, seq)
		}(i+1, row, prev, done)
	}
	wg.Wait()

	statuses := make([]model.RowOutcome, 0, len(outcomes))
	sent := 0
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		statuses = append(statuses, *o)
		if o.Status == model.StatusSent {
			sent++
		}
	}

	log.Printf("dispatch %s: done, %d sent / %d processed", invocation, sent, len(statuses))

	return &DispatchResult{
		Batch:    batch,
		Statuses: statuses,
		Message:  fmt.Sprintf("Campaign processed. %d emails sent in batch %d.", sent, batch),
	}, nil
}

// processRow runs the per-row pipeline: duplicate check, render, attachment
// resolution, send with retry, append, broadcast. The caller guarantees no
// other row with the same (recipient, subject) runs concurrently, which
// makes check-send-append atomic within the invocation.
func (d *Dispatcher) processRow(ctx context.Context, row sheet.Row, req DispatchRequest, batch, seq int) *model.RowOutcome {
	recipient := row[sheet.EmailColumn]
	outcome := &model.RowOutcome{Recipient: recipient, Batch: batch, Seq: seq}

	dup, err := d.Ledger.FindDuplicate(recipient, req.Subject)
	if err != nil {
		outcome.Status = model.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}
	if dup != nil {
		outcome.Status = model.StatusDuplicate
		return outcome
	}

	body := render.Render(req.Body, row)

	atts, err := d.resolveAttachments(ctx, row)
	if err != nil {
		outcome.Status = model.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	msg := mailer.Message{
		To:          recipient,
		Subject:     req.Subject,
		HTMLBody:    body,
		Attachments: atts,
	}
	if err := d.Sender.Send(ctx, msg); err != nil {
		outcome.Status = model.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	rec := &model.SentMail{
		Recipient: recipient,
		Subject:   req.Subject,
		Body:      body,
		Batch:     batch,
		Seq:       seq,
	}
	if err := d.Ledger.Append(rec); err != nil {
		// The mail went out but the write failed; surface it as a row
		// failure so the caller knows the ledger may be short one record.
		log.Println("⚠️ failed to record sent mail for", recipient, ":", err)
		outcome.Status = model.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	for _, b := range d.Broadcasters {
		b.Publish(*rec)
	}

	outcome.Status = model.StatusSent
	return outcome
}

func (d *Dispatcher) resolveAttachments(ctx context.Context, row sheet.Row) ([]mailer.Attachment, error) {
	if d.Attachments == nil {
		return nil, nil
	}

	var atts []mailer.Attachment
	for _, col := range AttachmentColumns {
		ref := row[col]
		if ref == "" {
			continue
		}
		content, err := d.Attachments.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		atts = append(atts, mailer.Attachment{Filename: ref, Content: content})
	}
	return atts, nil
}
