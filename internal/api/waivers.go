package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/codewithboateng/archlint/internal/storage"
)

type waiverCreateReq struct {
	RuleID     string `json:"rule_id"`
	FileGlob   string `json:"file_glob,omitempty"`
	PatternSub string `json:"pattern_sub,omitempty"`
	Reason     string `json:"reason"`
	ExpiresAt  string `json:"expires_at"` // RFC3339
}

func (s *Server) handleListWaivers(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active")
	only := active == "1" || active == "true" || active == "yes"
	ws, err := s.DB.ListWaivers(only)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	if ws == nil {
		ws = []storage.Waiver{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ws, "active_only": only})
}

func (s *Server) handleCreateWaiver(w http.ResponseWriter, r *http.Request) {
	var in waiverCreateReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.RuleID = strings.TrimSpace(in.RuleID)
	if in.RuleID == "" || in.Reason == "" || in.ExpiresAt == "" {
		s.err(w, http.StatusBadRequest, "rule_id, reason, expires_at required")
		return
	}
	ruleID := in.RuleID
	if s.Rules != nil {
		d, ok := s.Rules.Get(in.RuleID)
		if !ok {
			s.err(w, http.StatusBadRequest, "unknown rule: "+in.RuleID)
			return
		}
		ruleID = d.ID
	}
	exp, err := time.Parse(time.RFC3339Nano, in.ExpiresAt)
	if err != nil {
		s.err(w, http.StatusBadRequest, "bad expires_at (use RFC3339)")
		return
	}
	if !exp.After(time.Now()) {
		s.err(w, http.StatusBadRequest, "expires_at is in the past")
		return
	}
	actor := actorFromCtx(r.Context())
	id, err := s.DB.CreateWaiver(storage.Waiver{
		RuleID: ruleID, FileGlob: in.FileGlob, PatternSub: in.PatternSub,
		Reason: in.Reason, ExpiresAt: exp, CreatedBy: actor,
	})
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	_ = s.DB.LogAudit(actor, "waiver:created", "", map[string]any{"id": id, "rule": ruleID})
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "rule_id": ruleID})
}

func (s *Server) handleRevokeWaiver(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.err(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.DB.RevokeWaiver(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.err(w, http.StatusNotFound, "waiver not found or already revoked")
			return
		}
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	_ = s.DB.LogAudit(actorFromCtx(r.Context()), "waiver:revoked", "", map[string]any{"id": id})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
