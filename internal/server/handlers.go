package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shineum/eml-studio/internal/email"
	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/rewrite"
	"github.com/shineum/eml-studio/internal/store"
)

type exportRequest struct {
	Values map[string]string `json:"values"`
}

type rewriteRequest struct {
	Action string `json:"action"`
	Text   string `json:"text"`
}

type sendResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Filename string `json:"filename"`
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	templates, err := s.config.Store.ListVisibleTo(r.Context(), id.UserID, id.TeamID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var t email.Template
	if err := decodeJSON(r, &t, false); err != nil {
		respondError(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	t.UserID = id.UserID
	if t.TeamID == nil && id.TeamID != "" {
		t.TeamID = &id.TeamID
	}
	if err := checkTeam(t.TeamID, id, nil); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.config.Store.CreateTemplate(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("template created", "id", created.ID, "user_id", created.UserID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.visibleTemplate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	existing, err := s.ownedTemplate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var t email.Template
	if err := decodeJSON(r, &t, false); err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = existing.ID
	t.UserID = existing.UserID
	if err := checkTeam(t.TeamID, identityFrom(r.Context()), existing.TeamID); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.config.Store.UpdateTemplate(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.ownedTemplate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.config.Store.DeleteTemplate(r.Context(), t.ID); err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("template deleted", "id", t.ID)
	w.WriteHeader(http.StatusNoContent)
}

// exportTemplate responds with the resolved template as an .eml download.
func (s *Server) exportTemplate(w http.ResponseWriter, r *http.Request) {
	exp, err := s.export(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", eml.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": exp.Filename,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}

// sendTemplate resolves the template and hands it to the delivery provider.
func (s *Server) sendTemplate(w http.ResponseWriter, r *http.Request) {
	if s.config.Provider == nil {
		writeError(w, http.StatusServiceUnavailable, "no delivery provider configured")
		return
	}

	exp, err := s.export(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.config.Provider.Send(r.Context(), exp); err != nil {
		slog.Error("failed to deliver message",
			"provider", s.config.Provider.Name(),
			"file", exp.Filename,
			"error", err,
		)
		respondError(w, r, fmt.Errorf("%w: %w", errDelivery, err))
		return
	}

	writeJSON(w, http.StatusAccepted, sendResponse{
		Status:   "sent",
		Provider: s.config.Provider.Name(),
		Filename: exp.Filename,
	})
}

// rewrite streams the rewritten text as it is produced. Errors before the
// first chunk are reported as JSON; later ones end the response early.
func (s *Server) rewrite(w http.ResponseWriter, r *http.Request) {
	if s.config.Rewriter == nil {
		writeError(w, http.StatusServiceUnavailable, "rewrite service not configured")
		return
	}

	var req rewriteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	action, err := rewrite.ParseAction(req.Action)
	if err != nil {
		respondError(w, r, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false
	err = s.config.Rewriter.Stream(r.Context(), action, req.Text, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	switch {
	case err == nil && !started:
		// The model returned nothing; still a valid empty rewrite.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	case err != nil && !started:
		slog.Warn("rewrite failed", "action", action, "error", err)
		respondError(w, r, err)
	case err != nil:
		slog.Warn("rewrite stream interrupted", "action", action, "error", err)
	}
}

// export loads a visible template and serializes it with the request's
// placeholder values.
func (s *Server) export(r *http.Request) (*email.Export, error) {
	t, err := s.visibleTemplate(r)
	if err != nil {
		return nil, err
	}

	var req exportRequest
	if err := decodeJSON(r, &req, true); err != nil {
		return nil, err
	}
	return s.config.Serializer.Export(t, req.Values)
}

// visibleTemplate loads the {id} template if the caller may see it. Templates
// the caller cannot see are reported as not found.
func (s *Server) visibleTemplate(r *http.Request) (*email.Template, error) {
	id := chi.URLParam(r, "id")
	t, err := s.config.Store.GetTemplate(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(t, identityFrom(r.Context())) {
		return nil, fmt.Errorf("template %s: %w", id, store.ErrNotFound)
	}
	return t, nil
}

// ownedTemplate loads the {id} template and requires the caller to own it.
func (s *Server) ownedTemplate(r *http.Request) (*email.Template, error) {
	t, err := s.visibleTemplate(r)
	if err != nil {
		return nil, err
	}
	if t.UserID != identityFrom(r.Context()).UserID {
		return nil, errForbidden
	}
	return t, nil
}

// checkTeam rejects assigning a template to a team other than the caller's.
// An update may keep the team the template already belongs to.
func checkTeam(team *string, id Identity, current *string) error {
	switch {
	case team == nil:
		return nil
	case id.TeamID != "" && *team == id.TeamID:
		return nil
	case current != nil && *team == *current:
		return nil
	}
	return errForeignTeam
}

func visibleTo(t *email.Template, id Identity) bool {
	if t.UserID == id.UserID {
		return true
	}
	return t.Visibility == email.VisibilityTeam &&
		t.TeamID != nil && id.TeamID != "" && *t.TeamID == id.TeamID
}

// decodeJSON decodes the request body into v. An empty body is accepted when
// optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", errBadRequest, maxErr.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
