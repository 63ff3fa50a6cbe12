// Package web is the HTTP surface of the file server. Every route
// shapes its response for the judged request origin: HTML pages,
// redirects and flash messages for browsers, newline-terminated plain
// text and meaningful status codes for CLI tools.
package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	qrcode "github.com/skip2/go-qrcode"

	"lanshare/internal/origin"
	"lanshare/internal/store"
)

const flashSession = "lanshare-flash"

// Config carries everything a Server needs; built once in main.
type Config struct {
	Store *store.Store
	// BaseURL is the externally advertised address, shown and
	// QR-encoded on the index page.
	BaseURL string
	// Usage is the plain-text CLI help served at /api.
	Usage  string
	Logger *slog.Logger
}

// Server holds the route handlers.
type Server struct {
	store    *store.Store
	baseURL  string
	usage    string
	log      *slog.Logger
	sessions *sessions.CookieStore
	qr       template.URL
}

// New builds a Server, rendering the index page's QR image up front.
func New(cfg Config) (*Server, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return nil, errors.New("generate session key")
	}
	usage := cfg.Usage
	if usage != "" && !strings.HasSuffix(usage, "\n") {
		usage += "\n"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:    cfg.Store,
		baseURL:  cfg.BaseURL,
		usage:    usage,
		log:      logger,
		sessions: sessions.NewCookieStore(key),
	}
	if cfg.BaseURL != "" {
		png, err := qrcode.Encode(cfg.BaseURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode QR code: %w", err)
		}
		s.qr = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/files/{name}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/delete/{name}", s.handleDelete).Methods(http.MethodGet, http.MethodDelete)
	r.HandleFunc("/upload", s.handleMissingFilename).Methods(http.MethodPut)
	r.HandleFunc("/upload/", s.handleMissingFilename).Methods(http.MethodPut)
	r.HandleFunc("/upload/{name}", s.handlePut).Methods(http.MethodPut)
	r.HandleFunc("/upload", s.handleMultipart).Methods(http.MethodPost)
	r.HandleFunc("/upload/", s.handleMultipart).Methods(http.MethodPost)
	r.HandleFunc("/api", s.handleAPI).Methods(http.MethodGet)
	return s.logRequests(r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		s.internalError(w, err)
		return
	}
	if origin.Classify(r.Header.Get("Accept")) == origin.Browser {
		s.renderIndex(w, r, names)
		return
	}
	plainText(w, http.StatusOK, strings.Join(names, "\n")+"\n")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, ok := store.Sanitize(mux.Vars(r)["name"])
	if !ok {
		plainText(w, http.StatusNotFound, "File not found\n")
		return
	}
	f, info, err := s.store.Open(name)
	if errors.Is(err, store.ErrNotFound) {
		plainText(w, http.StatusNotFound, fmt.Sprintf("File %q not found\n", name))
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["name"]
	browser := origin.Classify(r.Header.Get("Accept")) == origin.Browser

	var err error = store.ErrNotFound
	if name, ok := store.Sanitize(raw); ok {
		err = s.store.Delete(name)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		msg := fmt.Sprintf("File %q not found, no file deleted", raw)
		if browser {
			s.flash(w, r, msg)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		plainText(w, http.StatusMethodNotAllowed, msg+"\n")
	case err != nil:
		s.internalError(w, err)
	case browser:
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		plainText(w, http.StatusNoContent, "")
	}
}

// handleMissingFilename answers PUT /upload without a filename
// segment; there is nowhere to store the body.
func (s *Server) handleMissingFilename(w http.ResponseWriter, r *http.Request) {
	plainText(w, http.StatusMethodNotAllowed,
		"No filename given: PUT to /upload/<filename>\nNo file uploaded\n")
}

// handlePut stores a raw request body under the path segment's name.
// Collisions always fail; curl -T retries make overwrites too easy to
// offer here.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["name"]
	res, err := s.store.Save(raw, r.Body, store.Fail)
	switch {
	case errors.Is(err, store.ErrExists):
		plainText(w, http.StatusConflict, fmt.Sprintf("Filename %q already exists on server\n", raw))
	case errors.Is(err, store.ErrInvalidName):
		plainText(w, http.StatusBadRequest, fmt.Sprintf("Invalid filename %q\n", raw))
	case err != nil:
		s.internalError(w, err)
	default:
		plainText(w, http.StatusCreated, res.Name+"\n")
	}
}

// handleMultipart stores every part of a multipart batch under the
// duplicate-file-behavior policy from the form. A Fail collision
// aborts the remainder of the batch; Skip and Keep resolve each item
// independently.
func (s *Server) handleMultipart(w http.ResponseWriter, r *http.Request) {
	browser := origin.Classify(r.Header.Get("Accept")) == origin.Browser

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respond(w, r, browser, http.StatusBadRequest, "Malformed upload request")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		s.respond(w, r, browser, http.StatusMethodNotAllowed, "No file provided")
		return
	}
	behavior := r.FormValue("duplicate-file-behavior")
	policy, err := store.ParsePolicy(behavior)
	if err != nil {
		s.respond(w, r, browser, http.StatusBadRequest,
			fmt.Sprintf("Unrecognized duplicate-file-behavior %q", behavior))
		return
	}

	var stored []string
	for _, fh := range files {
		part, err := fh.Open()
		if err != nil {
			s.internalError(w, err)
			return
		}
		res, err := s.store.Save(fh.Filename, part, policy)
		part.Close()
		switch {
		case errors.Is(err, store.ErrExists):
			s.respond(w, r, browser, http.StatusConflict,
				fmt.Sprintf("Filename %q already exists on server", fh.Filename))
			return
		case errors.Is(err, store.ErrInvalidName):
			s.respond(w, r, browser, http.StatusBadRequest,
				fmt.Sprintf("Invalid filename %q", fh.Filename))
			return
		case err != nil:
			s.internalError(w, err)
			return
		}
		if !res.Skipped {
			stored = append(stored, res.Name)
		}
	}

	if browser {
		s.flash(w, r, fmt.Sprintf("Uploaded %d file(s)", len(stored)))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	plainText(w, http.StatusCreated, strings.Join(stored, "\n")+"\n")
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if origin.Classify(r.Header.Get("Accept")) == origin.Browser {
		plainText(w, http.StatusNotAcceptable, "CLI Help: try calling this url with a CLI tool\n")
		return
	}
	plainText(w, http.StatusOK, s.usage)
}

// respond phrases an upload outcome for the request origin: flash and
// redirect for browsers, a plain-text line with the given status for
// CLI tools.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, browser bool, status int, msg string) {
	if browser {
		s.flash(w, r, msg)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	plainText(w, status, msg+"\n")
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func plainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if status != http.StatusNoContent {
		io.WriteString(w, body)
	}
}

// flash queues a one-shot message for the next index page render.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := s.sessions.Get(r, flashSession)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		s.log.Warn("save flash", "error", err)
	}
}

// popFlashes drains the queued messages, clearing the cookie.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	sess, _ := s.sessions.Get(r, flashSession)
	raw := sess.Flashes()
	if len(raw) > 0 {
		if err := sess.Save(r, w); err != nil {
			s.log.Warn("clear flashes", "error", err)
		}
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
