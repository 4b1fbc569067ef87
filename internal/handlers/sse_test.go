package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sales-dashboard/internal/services"
)

func sseRequest(path, signals string) *http.Request {
	target := path
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Datastar-Request", "true")
	return req
}

func TestNewSSEHandlers(t *testing.T) {
	session := newEmptySession(t)
	logger := quietLogger()

	handlers := NewSSEHandlers(session, logger, "USD")

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.session != session {
		t.Error("NewSSEHandlers() should set session field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleRefresh(t *testing.T) {
	session := newLoadedSession(t)
	handlers := NewSSEHandlers(session, quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{"selected":["Widget"],"window":"2","search":""}`))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"datastar-patch-signals",
		`"grid":["2024-01-01","2024-01-08"]`,
		`"cumulative":[10,10]`,
		`"window":"2"`,
		"datastar-patch-elements",
		`id="summary"`,
		`id="item-list"`,
		`id="item-table"`,
		"$8.00",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response should contain %q\n%s", want, body)
		}
	}

	if session.State() != services.StateFiltered {
		t.Errorf("State() = %v, want filtered", session.State())
	}
}

func TestSSEHandlers_HandleRefresh_NumericWindow(t *testing.T) {
	handlers := NewSSEHandlers(newLoadedSession(t), quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{"selected":["Gadget"],"window":14}`))

	if !strings.Contains(w.Body.String(), `"window":"14"`) {
		t.Errorf("expected window 14 in signals: %s", w.Body.String())
	}
}

func TestSSEHandlers_HandleRefresh_EmptySelection(t *testing.T) {
	handlers := NewSSEHandlers(newLoadedSession(t), quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{"selected":[],"window":"30"}`))

	body := w.Body.String()
	if !strings.Contains(body, `"grid":[]`) || !strings.Contains(body, `"cumulative":[]`) {
		t.Errorf("empty selection should clear the charts: %s", body)
	}
	if !strings.Contains(body, "No sales in the selection") {
		t.Errorf("empty selection should render an empty table: %s", body)
	}
}

func TestSSEHandlers_HandleRefresh_Search(t *testing.T) {
	handlers := NewSSEHandlers(newLoadedSession(t), quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{"search":"gadg"}`))

	body := w.Body.String()
	if !strings.Contains(body, `value="Gadget"`) {
		t.Errorf("search should list Gadget: %s", body)
	}
	if strings.Contains(body, `value="Widget"`) {
		t.Errorf("search should hide Widget: %s", body)
	}
}

func TestSSEHandlers_HandleRefresh_EmptySession(t *testing.T) {
	handlers := NewSSEHandlers(newEmptySession(t), quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{}`))

	if !strings.Contains(w.Body.String(), `id="no-data"`) {
		t.Errorf("empty session should patch the no-data view: %s", w.Body.String())
	}
}

func TestSSEHandlers_HandleRefresh_BadSignals(t *testing.T) {
	handlers := NewSSEHandlers(newLoadedSession(t), quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{not json`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSSEHandlers_HandleSelectAll(t *testing.T) {
	session := newLoadedSession(t)
	handlers := NewSSEHandlers(session, quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleSelectAll(w, sseRequest("/sse/select-all", `{"selected":[],"window":"30","search":""}`))

	body := w.Body.String()
	for _, want := range []string{
		`"selected":["Widget","Gadget"]`,
		`"grid":["2024-01-01","2024-01-08"]`,
		`id="summary"`,
		"3 sales",
		`id="item-table"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("select all response missing %q:\n%s", want, body)
		}
	}
	if session.State() != services.StateFiltered {
		t.Errorf("State() = %v, want filtered", session.State())
	}
}

func TestSSEHandlers_HandleSelectNone(t *testing.T) {
	session := newLoadedSession(t)
	handlers := NewSSEHandlers(session, quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleSelectNone(w, sseRequest("/sse/select-none", ""))

	body := w.Body.String()
	for _, want := range []string{
		`"selected":[]`,
		`"grid":[]`,
		`"cumulative":[]`,
		`"movingAverage":[]`,
		"No sales in the selection",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("select none response missing %q:\n%s", want, body)
		}
	}
	if session.State() != services.StateFiltered {
		t.Errorf("State() = %v, want filtered", session.State())
	}
}

func TestSSEHandlers_HandleSelectNone_EmptySession(t *testing.T) {
	session := newEmptySession(t)
	handlers := NewSSEHandlers(session, quietLogger(), "USD")

	w := httptest.NewRecorder()
	handlers.HandleSelectNone(w, sseRequest("/sse/select-none", ""))

	if !strings.Contains(w.Body.String(), `id="no-data"`) {
		t.Errorf("empty session should patch the no-data view: %s", w.Body.String())
	}
	if session.State() != services.StateEmpty {
		t.Errorf("State() = %v, want empty", session.State())
	}
}

func TestSSEHandlers_HandleRefresh_WindowFallback(t *testing.T) {
	handlers := NewSSEHandlers(newSessionWithWindow(t, 14), quietLogger(), "USD")

	for _, window := range []string{`""`, `"abc"`, `null`} {
		w := httptest.NewRecorder()
		handlers.HandleRefresh(w, sseRequest("/sse/refresh", `{"window":`+window+`}`))

		if !strings.Contains(w.Body.String(), `"window":"14"`) {
			t.Errorf("window %s should fall back to the configured default: %s", window, w.Body.String())
		}
	}
}

func TestAPIHandlers_HandleUpload_Datastar(t *testing.T) {
	session := newEmptySession(t)
	handlers := NewAPIHandlers(session, quietLogger(), "USD")

	body, contentType := multipartBody(t, "", map[string]string{"jan.csv": janCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Datastar-Request", "true")
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	out := w.Body.String()
	if !strings.Contains(out, `id="dashboard"`) || !strings.Contains(out, `id="item-list"`) {
		t.Errorf("upload should patch the loaded dashboard: %s", out)
	}
	if !strings.Contains(out, `"grid":["2024-01-01","2024-01-08"]`) || !strings.Contains(out, `"window":"30"`) {
		t.Errorf("upload should patch the charts for the loaded view: %s", out)
	}
	if session.State() != services.StateLoaded {
		t.Errorf("State() = %v, want loaded", session.State())
	}
}

func TestAPIHandlers_HandleUpload_DatastarError(t *testing.T) {
	session := newEmptySession(t)
	handlers := NewAPIHandlers(session, quietLogger(), "USD")

	body, contentType := multipartBody(t, "", map[string]string{"bad.csv": "Item ID,Item Name,Date,Net Earnings\nA,Widget,someday,1\n"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Datastar-Request", "true")
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	out := w.Body.String()
	if !strings.Contains(out, "A date could not be parsed") || !strings.Contains(out, "someday") {
		t.Errorf("upload error should patch a message: %s", out)
	}
	if session.State() != services.StateEmpty {
		t.Error("failed upload should leave the session empty")
	}
}

func TestWindowString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"14", "14"},
		{float64(30), "30"},
		{12.5, ""},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := windowString(tt.in); got != tt.want {
			t.Errorf("windowString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
