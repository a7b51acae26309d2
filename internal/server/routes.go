package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/recount/internal/discovery"
	"github.com/lazypower/recount/internal/export"
	"github.com/lazypower/recount/internal/render"
	"github.com/lazypower/recount/internal/store"
	"github.com/lazypower/recount/internal/transcript"
)

type conversationJSON struct {
	SessionID string `json:"session_id"`
	Project   string `json:"project"`
	Path      string `json:"path"`
	Modified  string `json:"modified"`
	Size      int64  `json:"size"`
	Preview   string `json:"preview,omitempty"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := discovery.Scan(s.projectsDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	withPreview := r.URL.Query().Get("preview") != ""

	out := make([]conversationJSON, 0, len(convs))
	for _, c := range convs {
		cj := conversationJSON{
			SessionID: c.SessionID,
			Project:   c.Project,
			Path:      c.Path,
			Modified:  c.Modified.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Size:      c.Size,
		}
		if withPreview {
			cj.Preview = discovery.Preview(c.Path, s.cfg.MaxPreviewLength)
		}
		out = append(out, cj)
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) handleConversationMarkdown(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.findConversation(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	doc, _, err := s.renderConversation(conv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(doc))
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Dest      string `json:"dest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id required")
		return
	}

	conv, ok := s.findConversation(w, req.SessionID)
	if !ok {
		return
	}

	doc, skipped, err := s.renderConversation(conv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dest := req.Dest
	if dest == "" {
		dest = export.DefaultDest(s.cfg.ExportDirectory, conv)
	}
	if err := export.Write(doc, dest, s.cfg.AllowedBasePath); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.db.RecordExport(store.Export{
		SourcePath: conv.Path,
		DestPath:   dest,
		Project:    conv.Project,
		SessionID:  conv.SessionID,
		Bytes:      int64(len(doc)),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            id,
		"dest":          dest,
		"bytes":         len(doc),
		"skipped_lines": skipped,
	})
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	exports, err := s.db.RecentExports(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exports == nil {
		exports = []store.Export{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": exports})
}

func (s *Server) findConversation(w http.ResponseWriter, sessionID string) (discovery.Conversation, bool) {
	convs, err := discovery.Scan(s.projectsDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return discovery.Conversation{}, false
	}

	conv, found := discovery.FindBySessionID(convs, sessionID)
	if !found {
		writeError(w, http.StatusNotFound, "conversation not found: "+sessionID)
		return discovery.Conversation{}, false
	}
	return conv, true
}

func (s *Server) renderConversation(conv discovery.Conversation) (string, int, error) {
	turns, skipped, err := transcript.ReadFile(conv.Path)
	if err != nil {
		return "", 0, err
	}

	r := render.New(render.Options{
		MaxResultLength: s.cfg.MaxResultLength,
		DateFormat:      s.cfg.DateDisplayFormat,
	})
	return r.Assemble(turns), skipped, nil
}
