package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
	"github.com/unclebandit/mailmerge-backend/internal/model"
)

// SentMailRepositoryInterface is the campaign ledger contract: append-only
// delivery records with duplicate lookup and batch numbering.
type SentMailRepositoryInterface interface {
	MaxBatch() (int, error)
	FindDuplicate(recipient, subject string) (*model.SentMail, error)
	Append(m *model.SentMail) error
	ListAll() ([]model.SentMail, error)
}

type SentMailRepository struct {
	DB *sql.DB
}

// MaxBatch returns the highest batch value across all records, 0 when the
// ledger is empty. Callers compute the next batch as MaxBatch()+1, once per
// dispatch invocation.
func (r *SentMailRepository) MaxBatch() (int, error) {
	var max int
	err := r.DB.QueryRow(`SELECT COALESCE(MAX(batch), 0) FROM sent_mails`).Scan(&max)
	if err != nil {
		return 0, appErrors.NewStorage("max-batch", err)
	}
	return max, nil
}

// FindDuplicate looks for an existing record with the exact (recipient,
// subject) pair, in any batch. Returns nil when there is none.
func (r *SentMailRepository) FindDuplicate(recipient, subject string) (*model.SentMail, error) {
	query := `
        SELECT id, recipient, subject, body, batch, seq, sent_at
        FROM sent_mails
        WHERE recipient=$1 AND subject=$2
        LIMIT 1
    `
	var m model.SentMail
	err := r.DB.QueryRow(query, recipient, subject).Scan(
		&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Batch, &m.Seq, &m.SentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.NewStorage("find-duplicate", err)
	}
	return &m, nil
}

// Append writes one delivery record immediately after its send succeeded.
func (r *SentMailRepository) Append(m *model.SentMail) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	query := `
        INSERT INTO sent_mails (recipient, subject, body, batch, seq, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	err := r.DB.QueryRow(query, m.Recipient, m.Subject, m.Body, m.Batch, m.Seq, m.SentAt).Scan(&m.ID)
	if err != nil {
		return appErrors.NewStorage("append", err)
	}
	return nil
}

// ListAll returns every record in ascending delivery order.
func (r *SentMailRepository) ListAll() ([]model.SentMail, error) {
	query := `
        SELECT id, recipient, subject, body, batch, seq, sent_at
        FROM sent_mails
        ORDER BY batch ASC, seq ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, appErrors.NewStorage("list", err)
	}
	defer rows.Close()

	mails := []model.SentMail{}
	for rows.Next() {
		var m model.SentMail
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Batch, &m.Seq, &m.SentAt); err != nil {
			return nil, appErrors.NewStorage("list", err)
		}
		mails = append(mails, m)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStorage("list", err)
	}
	return mails, nil
}

var _ SentMailRepositoryInterface = (*SentMailRepository)(nil)
