package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unclebandit/mailmerge-backend/internal/events"
	"github.com/unclebandit/mailmerge-backend/internal/handler"
	"github.com/unclebandit/mailmerge-backend/internal/mailer"
	"github.com/unclebandit/mailmerge-backend/internal/model"
	"github.com/unclebandit/mailmerge-backend/internal/service"
)

// --- Mocks ---

type memLedger struct {
	mu      sync.Mutex
	records []model.SentMail
}

func (l *memLedger) MaxBatch() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	max := 0
	for _, r := range l.records {
		if r.Batch > max {
			max = r.Batch
		}
	}
	return max, nil
}

func (l *memLedger) FindDuplicate(recipient, subject string) (*model.SentMail, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].Recipient == recipient && l.records[i].Subject == subject {
			rec := l.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (l *memLedger) Append(m *model.SentMail) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m.ID = len(l.records) + 1
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	l.records = append(l.records, *m)
	return nil
}

func (l *memLedger) ListAll() ([]model.SentMail, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.SentMail, len(l.records))
	copy(out, l.records)
	return out, nil
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, msg mailer.Message) error { return nil }

func newHandler(ledger *memLedger) *handler.CampaignHandler {
	hub := events.NewHub()
	return &handler.CampaignHandler{
		Dispatcher: &service.Dispatcher{
			Ledger:       ledger,
			Sender:       noopSender{},
			Broadcasters: []events.Broadcaster{hub},
		},
		Ledger: ledger,
		Hub:    hub,
	}
}

func multipartUpload(t *testing.T, subject, body, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("excelFile", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("subject", subject))
	require.NoError(t, w.WriteField("body", body))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// --- Tests ---

func TestUploadCampaign(t *testing.T) {
	ledger := &memLedger{}
	h := newHandler(ledger)

	buf, contentType := multipartUpload(t, "S", "Hi {{NAME}}",
		"recipients.csv", "Email,NAME\na@x.com,Alice\nb@x.com,Bob\n")

	req := httptest.NewRequest(http.MethodPost, "/upload-campaign", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadCampaign(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Statuses []model.RowOutcome `json:"statuses"`
		Message  string             `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Statuses, 2)
	require.Equal(t, "Campaign processed. 2 emails sent in batch 1.", resp.Message)

	records, _ := ledger.ListAll()
	require.Len(t, records, 2)
}

func TestUploadCampaignMissingFile(t *testing.T) {
	h := newHandler(&memLedger{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("subject", "S"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-campaign", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	h.UploadCampaign(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCampaignMissingEmailHeader(t *testing.T) {
	h := newHandler(&memLedger{})

	buf, contentType := multipartUpload(t, "S", "Hi", "recipients.csv", "Name\nAlice\n")
	req := httptest.NewRequest(http.MethodPost, "/upload-campaign", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadCampaign(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp["message"], "Email")
}

func TestUploadCampaignEmptySheet(t *testing.T) {
	h := newHandler(&memLedger{})

	buf, contentType := multipartUpload(t, "S", "Hi", "recipients.csv", "Email\n")
	req := httptest.NewRequest(http.MethodPost, "/upload-campaign", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadCampaign(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSentMailsOrdered(t *testing.T) {
	ledger := &memLedger{}
	h := newHandler(ledger)

	require.NoError(t, ledger.Append(&model.SentMail{Recipient: "a@x.com", Subject: "S", Body: "b", Batch: 1, Seq: 1}))
	require.NoError(t, ledger.Append(&model.SentMail{Recipient: "b@x.com", Subject: "S", Body: "b", Batch: 1, Seq: 2}))

	req := httptest.NewRequest(http.MethodGet, "/sent-mails", nil)
	rec := httptest.NewRecorder()

	h.ListSentMails(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var mails []model.SentMail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mails))
	require.Len(t, mails, 2)
	require.Equal(t, "a@x.com", mails[0].Recipient)
}

func TestStreamEventsDeliversRecord(t *testing.T) {
	ledger := &memLedger{}
	h := newHandler(ledger)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamEvents(rec, req)
	}()

	// Give the subscriber a moment to register, then publish and hang up.
	time.Sleep(20 * time.Millisecond)
	h.Hub.Publish(model.SentMail{Recipient: "a@x.com", Subject: "S", Batch: 1, Seq: 1})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	require.Contains(t, rec.Body.String(), "event: newEmail")
	require.Contains(t, rec.Body.String(), "a@x.com")
}
