// internal/model/sent_mail.go
package model

import "time"

// SentMail is one ledger entry: an email that was successfully delivered
// for some campaign batch. Records are append-only; nothing in the core
// ever updates or deletes them.
type SentMail struct {
	ID        int       `db:"id" json:"id"`
	Recipient string    `db:"recipient" json:"recipient"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	Batch     int       `db:"batch" json:"batch"`
	Seq       int       `db:"seq" json:"seq"`
	SentAt    time.Time `db:"sent_at" json:"sentAt"`
}
