package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"auto_x_post_publisher/generator"
	"auto_x_post_publisher/oauth"
	"auto_x_post_publisher/publisher"
	"auto_x_post_publisher/runner"
)

type fakeCycle struct {
	res    runner.CycleResult
	post   generator.Post
	err    error
	topics []string
}

func (f *fakeCycle) RunOnce(_ context.Context, topic string) (runner.CycleResult, error) {
	f.topics = append(f.topics, topic)
	return f.res, f.err
}

func (f *fakeCycle) Preview(_ context.Context, topic string) (generator.Post, error) {
	f.topics = append(f.topics, topic)
	return f.post, f.err
}

type fakeMemory struct {
	entries []string
}

func (f *fakeMemory) Recent(context.Context, int) ([]string, error) { return f.entries, nil }
func (f *fakeMemory) Append(context.Context, string) error          { return nil }

func newTestServer(t *testing.T, cycle Cycle, secret string) http.Handler {
	t.Helper()
	srv, err := New(cycle, &fakeMemory{entries: []string{"older post.", "newest *post*."}}, secret, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv.Routes()
}

func TestStatusPageListsRecentPosts(t *testing.T) {
	h := newTestServer(t, &fakeCycle{}, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "<h1>auto_x_post_publisher is running</h1>") {
		t.Fatalf("missing heading: %s", body)
	}
	newest := strings.Index(body, "newest *post*.")
	older := strings.Index(body, "older post.")
	if newest < 0 || older < 0 || newest > older {
		t.Fatalf("recent posts not listed newest first: %s", body)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	h := newTestServer(t, &fakeCycle{}, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeCycle{}, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, w.Code, http.StatusOK)
}

func TestManualRunSuccess(t *testing.T) {
	cycle := &fakeCycle{res: runner.CycleResult{
		Post:   generator.Post{Text: "Gas fees again."},
		Result: &publisher.PublishResult{ID: "9", Text: "Gas fees again."},
	}}
	h := newTestServer(t, cycle, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/manual-run", strings.NewReader(`{"topic":"gas"}`)))

	assert.Equal(t, w.Code, http.StatusOK)
	var resp runResp
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &resp), nil)
	assert.Equal(t, resp.OK, true)
	assert.Equal(t, resp.Generated, "Gas fees again.")
	assert.Equal(t, resp.Posted.ID, "9")
	assert.Equal(t, cycle.topics, []string{"gas"})
}

func TestManualRunEmptyBody(t *testing.T) {
	cycle := &fakeCycle{res: runner.CycleResult{Skipped: true}}
	h := newTestServer(t, cycle, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/manual-run", nil))
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, cycle.topics, []string{""})
}

func TestManualRunErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"busy", runner.ErrCycleInProgress, http.StatusConflict},
		{"rate limited", &publisher.RateLimitedError{}, http.StatusTooManyRequests},
		{"generation", &generator.GenerationError{StatusCode: 500}, http.StatusBadGateway},
		{"publish", &publisher.PublishError{StatusCode: 401}, http.StatusBadGateway},
		{"refresh", &oauth.RefreshError{StatusCode: 400}, http.StatusBadGateway},
		{"refresh unreachable", &oauth.RefreshError{Body: "connection refused", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"refresh timed out", &oauth.RefreshError{Body: "timeout", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeCycle{err: tt.err}, "")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("POST", "/manual-run", nil))
			assert.Equal(t, w.Code, tt.want)

			var resp runResp
			assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &resp), nil)
			assert.Equal(t, resp.OK, false)
			assert.Equal(t, resp.Error, tt.err.Error())
		})
	}
}

func TestManualRunRequiresSecret(t *testing.T) {
	cycle := &fakeCycle{}
	h := newTestServer(t, cycle, "s3cret")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/manual-run", nil))
	assert.Equal(t, w.Code, http.StatusUnauthorized)
	assert.Equal(t, len(cycle.topics), 0)

	req := httptest.NewRequest("POST", "/manual-run", nil)
	req.Header.Set("X-Run-Secret", "s3cret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, w.Code, http.StatusOK)
}

func TestManualRunMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeCycle{}, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/manual-run", nil))
	assert.Equal(t, w.Code, http.StatusMethodNotAllowed)
}

func TestPreview(t *testing.T) {
	cycle := &fakeCycle{post: generator.Post{Text: "Draft.", Style: generator.StyleTwoLines}}
	h := newTestServer(t, cycle, "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/preview", strings.NewReader(`{"topic":"l2"}`)))
	assert.Equal(t, w.Code, http.StatusOK)

	var got map[string]any
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &got), nil)
	assert.Equal(t, got["text"], "Draft.")
	assert.Equal(t, got["style"], "2-line")
}

func TestPreviewBadJSON(t *testing.T) {
	h := newTestServer(t, &fakeCycle{}, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/preview", strings.NewReader("{")))
	assert.Equal(t, w.Code, http.StatusBadRequest)
}
