package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"messagewall/pkg/httpx"
	"messagewall/pkg/models"
	"messagewall/pkg/notify"
)

type fakeStore struct {
	increments int
	puts       []models.Message
	sortKeys   []string

	incrementErr error
	putErr       error
}

func (f *fakeStore) IncrementCount(delta int64) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments += int(delta)
	return nil
}

func (f *fakeStore) PutMessage(sortKey string, m models.Message) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.sortKeys = append(f.sortKeys, sortKey)
	f.puts = append(f.puts, m)
	return nil
}

type fakeNotifier struct {
	events []notify.PostedEvent
	err    error
}

func (f *fakeNotifier) MessagePosted(_ context.Context, ev notify.PostedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func post(t *testing.T, h *Handler, method, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	if header == nil {
		header = http.Header{}
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, &httpx.Request{
		Ctx:    context.Background(),
		Method: method,
		Path:   "/v1/messages",
		Header: header,
		Body:   []byte(body),
	})
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%q)", err, rec.Body.String())
	}
	return out["error"]
}

func TestHandleValidPost(t *testing.T) {
	st := &fakeStore{}
	n := &fakeNotifier{}
	rec := post(t, New(st, n), http.MethodPost, `{"text":"hello wall"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.MessageID == "" || resp.Timestamp == "" {
		t.Fatalf("response = %+v", resp)
	}

	if st.increments != 1 {
		t.Fatalf("increments = %d, want 1", st.increments)
	}
	if len(st.puts) != 1 || st.puts[0].Text != "hello wall" {
		t.Fatalf("stored = %+v", st.puts)
	}
	wantKey := resp.Timestamp + "#" + resp.MessageID
	if st.sortKeys[0] != wantKey {
		t.Fatalf("sort key = %q, want %q", st.sortKeys[0], wantKey)
	}
	if len(n.events) != 1 || n.events[0].MessageID != resp.MessageID {
		t.Fatalf("events = %+v", n.events)
	}
}

func TestHandleTrimsText(t *testing.T) {
	st := &fakeStore{}
	rec := post(t, New(st, &fakeNotifier{}), http.MethodPost, `{"text":"  padded  "}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if st.puts[0].Text != "padded" {
		t.Fatalf("stored text = %q, want %q", st.puts[0].Text, "padded")
	}
}

func TestHandleOptions(t *testing.T) {
	st := &fakeStore{}
	rec := post(t, New(st, &fakeNotifier{}), http.MethodOptions, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight body = %q, want empty", rec.Body.String())
	}
	if st.increments != 0 || len(st.puts) != 0 {
		t.Fatal("preflight must not touch the store")
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := post(t, New(&fakeStore{}, &fakeNotifier{}), method, "", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d, want 405", method, rec.Code)
		}
		if msg := errorBody(t, rec); msg != "Method not allowed" {
			t.Fatalf("%s error = %q", method, msg)
		}
	}
}

func TestHandleRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "{not json", "Invalid JSON"},
		{"missing text", `{}`, "Message text is required"},
		{"empty text", `{"text":""}`, "Message text is required"},
		{"whitespace only", `{"text":"   "}`, "Message text is required"},
		{"too long", `{"text":"` + strings.Repeat("a", MaxTextLen+1) + `"}`, "Message too long (max 500 chars)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := &fakeStore{}
			n := &fakeNotifier{}
			rec := post(t, New(st, n), http.MethodPost, c.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := errorBody(t, rec); msg != c.want {
				t.Fatalf("error = %q, want %q", msg, c.want)
			}
			if st.increments != 0 || len(st.puts) != 0 || len(n.events) != 0 {
				t.Fatal("rejected request must have no side effects")
			}
		})
	}
}

func TestHandleLengthCountsRunes(t *testing.T) {
	// exactly 500 multi-byte runes is accepted
	text := strings.Repeat("é", MaxTextLen)
	rec := post(t, New(&fakeStore{}, &fakeNotifier{}), http.MethodPost, `{"text":"`+text+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("500-rune text rejected: status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestHandleBase64Body(t *testing.T) {
	st := &fakeStore{}
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"text":"decoded fine"}`))
	header := http.Header{}
	header.Set("Content-Transfer-Encoding", "base64")
	rec := post(t, New(st, &fakeNotifier{}), http.MethodPost, encoded, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if st.puts[0].Text != "decoded fine" {
		t.Fatalf("stored text = %q", st.puts[0].Text)
	}
}

func TestHandleBadBase64(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Transfer-Encoding", "base64")
	rec := post(t, New(&fakeStore{}, &fakeNotifier{}), http.MethodPost, "%%% not base64 %%%", header)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorBody(t, rec); msg != "Invalid JSON" {
		t.Fatalf("error = %q", msg)
	}
}

func TestHandleUniqueIDs(t *testing.T) {
	st := &fakeStore{}
	h := New(st, &fakeNotifier{})
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		rec := post(t, h, http.MethodPost, `{"text":"x"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp struct {
			MessageID string `json:"messageId"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if seen[resp.MessageID] {
			t.Fatalf("duplicate message id %q", resp.MessageID)
		}
		seen[resp.MessageID] = true
	}
}

func TestHandleStoreFailures(t *testing.T) {
	cases := []struct {
		name  string
		store *fakeStore
		n     *fakeNotifier
	}{
		{"increment fails", &fakeStore{incrementErr: errors.New("disk gone")}, &fakeNotifier{}},
		{"put fails", &fakeStore{putErr: errors.New("disk gone")}, &fakeNotifier{}},
		{"notify fails", &fakeStore{}, &fakeNotifier{err: errors.New("broker down")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := post(t, New(c.store, c.n), http.MethodPost, `{"text":"hello"}`, nil)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if msg := errorBody(t, rec); msg != "Internal server error" {
				t.Fatalf("error = %q", msg)
			}
		})
	}
}

func TestHandlePutFailureLeavesCounterAhead(t *testing.T) {
	st := &fakeStore{putErr: errors.New("disk gone")}
	rec := post(t, New(st, &fakeNotifier{}), http.MethodPost, `{"text":"hello"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// no rollback: the counter increment before the failed put stays
	if st.increments != 1 {
		t.Fatalf("increments = %d, want 1", st.increments)
	}
}
