// Package ingest validates and persists posted messages. The handler is the
// write path of the wall: bump the counter, write the record, emit the
// posted signal. The three steps are deliberately not transactional; a
// failure between them leaves the counter ahead of the stored messages,
// which the eventually consistent snapshot tolerates.
package ingest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"messagewall/pkg/httpx"
	"messagewall/pkg/logger"
	"messagewall/pkg/models"
	"messagewall/pkg/notify"
	"messagewall/pkg/telemetry"
	"messagewall/pkg/utils"
)

// MaxTextLen is the maximum message length in characters after trimming.
const MaxTextLen = 500

// Store is the slice of the store the ingest path needs.
type Store interface {
	IncrementCount(delta int64) error
	PutMessage(sortKey string, m models.Message) error
}

// Handler accepts posted messages. Stateless; safe for any number of
// concurrent invocations, the store's atomic increment is the only
// synchronization point.
type Handler struct {
	store    Store
	notifier notify.Notifier
}

// New wires the handler to its collaborators.
func New(st Store, n notify.Notifier) *Handler {
	return &Handler{store: st, notifier: n}
}

type postRequest struct {
	Text string `json:"text"`
}

type postResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Timestamp string `json:"timestamp"`
}

// Handle implements httpx.HandlerFunc.
func (h *Handler) Handle(w httpx.ResponseWriter, r *httpx.Request) {
	switch r.Method {
	case http.MethodOptions:
		// preflight probe: success, empty body, no side effects
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		telemetry.IngestRejected.WithLabelValues("method").Inc()
		utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	text, ok := h.parseText(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	ts := time.Now().UTC().Format(models.TimestampLayout)
	sortKey := ts + "#" + id

	// counter first, then record, then signal; no rollback on partial failure
	if err := h.store.IncrementCount(1); err != nil {
		h.internalError(w, "increment_failed", err)
		return
	}
	if err := h.store.PutMessage(sortKey, models.Message{ID: id, Text: text, CreatedAt: ts}); err != nil {
		h.internalError(w, "put_message_failed", err)
		return
	}
	if err := h.notifier.MessagePosted(r.Ctx, notify.PostedEvent{MessageID: id, Timestamp: ts}); err != nil {
		h.internalError(w, "notify_failed", err)
		return
	}

	telemetry.MessagesIngested.Inc()
	logger.Info("message_ingested", "messageId", id, "timestamp", ts)
	_ = utils.JSONWrite(w, http.StatusOK, postResponse{Success: true, MessageID: id, Timestamp: ts})
}

// parseText decodes and validates the request body, writing the rejection
// response itself when the input is bad.
func (h *Handler) parseText(w httpx.ResponseWriter, r *httpx.Request) (string, bool) {
	raw := r.Body
	// the front door may hand us a transport-encoded body
	if strings.EqualFold(r.Header.Get("Content-Transfer-Encoding"), "base64") {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			telemetry.IngestRejected.WithLabelValues("invalid_json").Inc()
			utils.JSONError(w, http.StatusBadRequest, "Invalid JSON")
			return "", false
		}
		raw = decoded
	}

	var body postRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		telemetry.IngestRejected.WithLabelValues("invalid_json").Inc()
		utils.JSONError(w, http.StatusBadRequest, "Invalid JSON")
		return "", false
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		telemetry.IngestRejected.WithLabelValues("empty").Inc()
		utils.JSONError(w, http.StatusBadRequest, "Message text is required")
		return "", false
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		telemetry.IngestRejected.WithLabelValues("too_long").Inc()
		utils.JSONError(w, http.StatusBadRequest, "Message too long (max 500 chars)")
		return "", false
	}
	return text, true
}

func (h *Handler) internalError(w httpx.ResponseWriter, op string, err error) {
	telemetry.IngestFailures.Inc()
	logger.Error("ingest_failed", "op", op, "error", err)
	utils.JSONError(w, http.StatusInternalServerError, "Internal server error")
}
