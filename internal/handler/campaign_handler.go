package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
	"github.com/unclebandit/mailmerge-backend/internal/events"
	"github.com/unclebandit/mailmerge-backend/internal/repository"
	"github.com/unclebandit/mailmerge-backend/internal/service"
)

// CampaignHandler holds the dependencies for the campaign HTTP surface.
type CampaignHandler struct {
	Dispatcher *service.Dispatcher
	Ledger     repository.SentMailRepositoryInterface
	Hub        *events.Hub

	// MaxUploadSize caps the multipart body; 0 means DefaultMaxUploadSize.
	MaxUploadSize int64
}

const DefaultMaxUploadSize = 10 << 20 // 10MB

// UploadCampaign handles POST /upload-campaign: multipart form with an
// excelFile upload plus subject and body template fields.
func (h *CampaignHandler) UploadCampaign(w http.ResponseWriter, r *http.Request) {
	maxSize := h.MaxUploadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("excelFile")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "no spreadsheet uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.Dispatcher.Dispatch(r.Context(), service.DispatchRequest{
		Subject:   r.FormValue("subject"),
		Body:      r.FormValue("body"),
		SheetData: data,
		Filename:  header.Filename,
	})
	if err != nil {
		if appErrors.IsValidation(err) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Println("❌ campaign dispatch failed:", err)
		writeMessage(w, http.StatusInternalServerError, "error sending campaign")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"statuses": result.Statuses,
		"message":  result.Message,
	})
}

// ListSentMails handles GET /sent-mails: every delivery record ordered by
// (batch, seq) ascending.
func (h *CampaignHandler) ListSentMails(w http.ResponseWriter, r *http.Request) {
	mails, err := h.Ledger.ListAll()
	if err != nil {
		log.Println("❌ failed to list sent mails:", err)
		writeMessage(w, http.StatusInternalServerError, "failed to fetch sent mails")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mails)
}

// StreamEvents handles GET /events: a Server-Sent Events feed of delivery
// records as they are appended. Best-effort, no replay for late listeners.
func (h *CampaignHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, cancel := h.Hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case rec, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: newEmail\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
