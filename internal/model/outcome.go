// internal/model/outcome.go
package model

// RowStatus classifies what happened to one spreadsheet row during dispatch.
type RowStatus string

const (
	StatusSent      RowStatus = "sent"
	StatusDuplicate RowStatus = "duplicate"
	StatusFailed    RowStatus = "failed"
)

// RowOutcome is the per-row result of a dispatch invocation. Rows skipped
// for a missing recipient address produce no outcome at all.
type RowOutcome struct {
	Recipient string    `json:"recipient"`
	Status    RowStatus `json:"status"`
	Batch     int       `json:"batch"`
	Seq       int       `json:"seq"`
	Error     string    `json:"error,omitempty"`
}
