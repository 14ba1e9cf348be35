// Package server serves the selection form, the inline story and the
// downloadable document over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/logging"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/ppiankov/lifestory/internal/render"
	"github.com/ppiankov/lifestory/internal/story"
	"github.com/ppiankov/lifestory/internal/worker"
)

const (
	sweepInterval = time.Minute
	clientIdle    = 10 * time.Minute
)

// Storyteller is the part of the pipeline the server needs
type Storyteller interface {
	Options(ctx context.Context) (*pipeline.Options, error)
	Build(ctx context.Context, sel model.Selection) (*pipeline.Result, error)
	Embed(res *pipeline.Result) (string, error)
	Generate(ctx context.Context, sel model.Selection) (*pipeline.Output, error)
}

// Server is the interactive HTTP surface
type Server struct {
	stories Storyteller
	config  model.ServerConfig
	limiter *worker.Limiter
	handler http.Handler
}

// New creates a server for the given pipeline and configuration
func New(stories Storyteller, cfg model.ServerConfig) *Server {
	s := &Server{
		stories: stories,
		config:  cfg,
		limiter: worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/story", s.handleStory)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.handler = s.withLogging(s.withRateLimit(mux))
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return
			case <-done:
				return
			case <-ticker.C:
				if n := s.limiter.Sweep(clientIdle); n > 0 {
					logging.Debugf("dropped %d idle rate limit entries", n)
				}
			}
		}
	}()

	logging.Infof("Serving life expectancy stories on %s", s.config.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logging.Infof("HTTP server stopped")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}

	opts, err := s.stories.Options(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel := model.Selection{Year: opts.DefaultYear}
	if len(opts.Countries) > 0 {
		sel.Country = opts.Countries[0]
	}
	if len(opts.Genders) > 0 {
		sel.Gender = opts.Genders[0]
	}
	s.writePage(w, http.StatusOK, pageView{Options: opts, Selection: sel})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	opts, err := s.stories.Options(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel, err := parseSelection(r, opts.DefaultYear)
	if err != nil {
		s.writePage(w, statusFor(err), pageView{Options: opts, Selection: sel, Error: err.Error()})
		return
	}

	res, err := s.stories.Build(r.Context(), sel)
	if err != nil {
		s.writePage(w, statusFor(err), pageView{Options: opts, Selection: sel, Error: err.Error()})
		return
	}
	embed, err := s.stories.Embed(res)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writePage(w, http.StatusOK, pageView{
		Options:     opts,
		Selection:   sel,
		Embed:       template.HTML(embed),
		Narrative:   res.Story.Narrative,
		DownloadURL: "/download?" + selectionQuery(sel),
		FileName:    render.FileName(sel.Country),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	sel, err := parseSelection(r, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.stories.Generate(r.Context(), sel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", render.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Document)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Document)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	opts, err := s.stories.Options(r.Context())
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		key := worker.ClientKey(r, s.config.TrustProxy)
		if !s.limiter.Allow(key) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Debugf("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) writePage(w http.ResponseWriter, status int, view pageView) {
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, view); err != nil {
		logging.Errorf("render page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Errorf("%v", err)
	}
	http.Error(w, err.Error(), status)
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	var notFound *dataset.NotFoundError
	var selErr *story.SelectionError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &selErr):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseSelection reads country, gender and year from the query string.
// An absent year falls back to defaultYear.
func parseSelection(r *http.Request, defaultYear int) (model.Selection, error) {
	q := r.URL.Query()
	sel := model.Selection{
		Country: strings.TrimSpace(q.Get("country")),
		Gender:  strings.TrimSpace(q.Get("gender")),
		Year:    defaultYear,
	}
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return sel, &story.SelectionError{Field: "year", Value: raw, Reason: "must be a number"}
		}
		sel.Year = year
	}
	return sel, nil
}

func selectionQuery(sel model.Selection) string {
	return url.Values{
		"country": {sel.Country},
		"gender":  {sel.Gender},
		"year":    {strconv.Itoa(sel.Year)},
	}.Encode()
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
