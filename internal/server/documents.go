package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/buildinfo"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/pipeline"
	"github.com/matzehuels/gridcraft/pkg/pointer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// document resolves the {id} URL parameter.
func (s *Server) document(r *http.Request) (*session.Document, error) {
	return s.sessions.Get(chi.URLParam(r, "id"))
}

// =============================================================================
// Documents
// =============================================================================

type createRequest struct {
	XCells int    `json:"x_cells"`
	YCells int    `json:"y_cells"`
	Markup string `json:"markup,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.XCells == 0 && req.YCells == 0 {
		req.XCells, req.YCells = s.grid[0], s.grid[1]
	}

	doc, err := s.sessions.Create(req.XCells, req.YCells)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Markup != "" {
		err := doc.Do(func(d *designer.Designer) error { return d.SetMarkup(req.Markup) })
		if err != nil {
			s.sessions.Close(doc.ID)
			s.writeError(w, r, err)
			return
		}
	}
	s.track(doc)

	st, err := snapshot(doc, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/documents/"+doc.ID)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := snapshot(doc, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Input
// =============================================================================

type pointerRequest struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req pointerRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var apply func(*designer.Designer) error
	if req.Type == "resize" {
		if req.Width <= 0 || req.Height <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "resize needs a positive width and height"))
			return
		}
		apply = func(d *designer.Designer) error {
			ws := d.Workspace()
			if ws == nil {
				return errors.New(errors.ErrCodeNoDocument, "no document is open")
			}
			ws.Resize(req.Width, req.Height)
			return nil
		}
	} else {
		kind, ok := pointer.ParseKind(req.Type)
		if !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "unknown pointer type %q", req.Type))
			return
		}
		apply = func(d *designer.Designer) error { return d.Pointer(kind, req.X, req.Y) }
	}

	var changed bool
	st, err := snapshot(doc, observed(apply, &changed))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !changed {
		s.publish(st)
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cellID := chi.URLParam(r, "cellID")
	st, err := snapshot(doc, func(d *designer.Designer) error { return d.Toggle(cellID) })
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(st)
	writeJSON(w, http.StatusOK, st)
}

type commandRequest struct {
	Code    string `json:"code"`
	Value   string `json:"value,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
	Cancel  bool   `json:"cancel,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req commandRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	code, err := designer.ParseCode(req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	host := designer.StaticHost{Confirmed: req.Confirm, Value: req.Value, Cancel: req.Cancel}
	st, err := snapshot(doc, func(d *designer.Designer) error { return d.DispatchWith(host, code) })
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// =============================================================================
// Markup
// =============================================================================

func (s *Server) handleGetMarkup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	html, err := markupOf(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (s *Server) handlePutMarkup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidMarkup, err, "read markup"))
		return
	}
	st, err := snapshot(doc, func(d *designer.Designer) error { return d.SetMarkup(string(body)) })
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func markupOf(doc *session.Document) (string, error) {
	var html string
	err := doc.Do(func(d *designer.Designer) error {
		var ok bool
		if html, ok = d.Markup(); !ok {
			return errors.New(errors.ErrCodeNoDocument, "no document is open")
		}
		return nil
	})
	return html, err
}

// =============================================================================
// Artifacts
// =============================================================================

func (s *Server) handleArtifact(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.document(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts := pipeline.Options{Format: format}
		q := r.URL.Query()
		if v := q.Get("width"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid width %q", v))
				return
			}
			opts.Width = float64(n)
		}
		opts.Detailed = q.Get("detailed") == "true"
		opts.Refresh = q.Get("refresh") == "true"

		html, err := markupOf(doc)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := s.runner.Execute(r.Context(), html, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", pipeline.ContentType(format))
		if res.CacheHit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		w.Write(res.Artifact)
	}
}

// =============================================================================
// Events
// =============================================================================

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := snapshot(doc, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	initial, err := json.Marshal(st)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.events.serve(w, r, doc.ID, string(initial))
}
