package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"auto_x_post_publisher/generator"
	"auto_x_post_publisher/memory"
	"auto_x_post_publisher/oauth"
	"auto_x_post_publisher/publisher"
	"auto_x_post_publisher/runner"
)

// runTimeout bounds a manual run so a hung endpoint does not pin the handler.
const runTimeout = 90 * time.Second

// statusPosts is how many recent posts the status page lists.
const statusPosts = 10

// Cycle is what the HTTP surface needs from the runner.
type Cycle interface {
	RunOnce(ctx context.Context, topic string) (runner.CycleResult, error)
	Preview(ctx context.Context, topic string) (generator.Post, error)
}

type Server struct {
	cycle     Cycle
	memory    memory.Log
	runSecret string
	logger    *log.Logger
}

// New creates the server. mem may be nil; the status page then lists nothing.
func New(cycle Cycle, mem memory.Log, runSecret string, logger *log.Logger) (*Server, error) {
	if cycle == nil {
		return nil, errors.New("runner required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cycle:     cycle,
		memory:    mem,
		runSecret: runSecret,
		logger:    logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/manual-run", s.handleManualRun)
	mux.HandleFunc("/api/preview", s.handlePreview)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type runReq struct {
	Topic string `json:"topic"`
}

type runResp struct {
	OK        bool                     `json:"ok"`
	Generated string                   `json:"generated,omitempty"`
	Posted    *publisher.PublishResult `json:"posted,omitempty"`
	Skipped   bool                     `json:"skipped,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var recent []string
	if s.memory != nil {
		var err error
		recent, err = s.memory.Recent(r.Context(), statusPosts)
		if err != nil {
			s.logger.Printf("[WARN] status page: read recent posts: %v", err)
		}
	}

	page, err := renderStatus(recent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleManualRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	req, err := decodeRunReq(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()
	res, err := s.cycle.RunOnce(ctx, req.Topic)
	if err != nil {
		s.logger.Printf("[WARN] manual-run: %v", err)
		writeJSON(w, statusFor(err), runResp{OK: false, Generated: res.Post.Text, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runResp{
		OK:        true,
		Generated: res.Post.Text,
		Posted:    res.Result,
		Skipped:   res.Skipped,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	req, err := decodeRunReq(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()
	post, err := s.cycle.Preview(ctx, req.Topic)
	if err != nil {
		writeJSON(w, statusFor(err), runResp{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// --- Helpers ---

func (s *Server) authorized(r *http.Request) bool {
	if s.runSecret == "" {
		return true
	}
	got := r.Header.Get("X-Run-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.runSecret)) == 1
}

// decodeRunReq accepts an empty body as "no topic".
func decodeRunReq(r *http.Request) (runReq, error) {
	var req runReq
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// statusFor maps expected cycle failures to HTTP statuses.
func statusFor(err error) int {
	var (
		genErr     *generator.GenerationError
		rateErr    *publisher.RateLimitedError
		pubErr     *publisher.PublishError
		refreshErr *oauth.RefreshError
	)
	switch {
	case errors.Is(err, runner.ErrCycleInProgress):
		return http.StatusConflict
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &genErr), errors.As(err, &pubErr), errors.As(err, &refreshErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func renderStatus(recent []string) ([]byte, error) {
	var md strings.Builder
	md.WriteString("# auto_x_post_publisher is running\n\n")
	md.WriteString("`POST /manual-run` composes and publishes one post.\n\n")
	md.WriteString("## Recent posts\n\n")
	if len(recent) == 0 {
		md.WriteString("_Nothing posted yet._\n")
	}
	for i := len(recent) - 1; i >= 0; i-- {
		md.WriteString(fmt.Sprintf("%d. %s\n", len(recent)-i, escapeMarkdown(recent[i])))
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &body); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	page.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>auto_x_post_publisher</title></head><body>")
	page.Write(body.Bytes())
	page.WriteString("</body></html>")
	return page.Bytes(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`,
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
