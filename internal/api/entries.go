package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakfield/hearth-core/internal/platform"
)

type createEntryRequest struct {
	Domain   string         `json:"domain"`
	Title    string         `json:"title"`
	UniqueID string         `json:"unique_id,omitempty"`
	Data     map[string]any `json:"data"`
	Options  map[string]any `json:"options,omitempty"`
}

// handleListEntries returns all config entries. Secrets live in entry
// data, so data is omitted from list responses.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entryRepo.List(r.Context())
	if err != nil {
		s.logger.Error("listing entries failed", "error", err)
		writeInternalError(w, "failed to list entries")
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, entrySummary(&e))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetEntry returns a single config entry without its data payload.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.entryRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, platform.ErrEntryNotFound) {
			writeNotFound(w, "entry not found")
			return
		}
		s.logger.Error("loading entry failed", "entry_id", id, "error", err)
		writeInternalError(w, "failed to load entry")
		return
	}

	writeJSON(w, http.StatusOK, entrySummary(entry))
}

// handleCreateEntry persists a new config entry and immediately attempts
// to set it up. Setup failure does not fail the create; the resulting
// entry state carries the outcome.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Domain == "" || req.Title == "" {
		writeBadRequest(w, "domain and title are required")
		return
	}

	entry := platform.NewConfigEntry(req.Domain, req.Title, req.Data)
	entry.UniqueID = req.UniqueID
	if req.Options != nil {
		entry.Options = req.Options
	}

	if err := s.entryRepo.Create(r.Context(), entry); err != nil {
		if errors.Is(err, platform.ErrEntryExists) {
			writeConflict(w, "an entry with this unique ID already exists")
			return
		}
		s.logger.Error("creating entry failed", "domain", req.Domain, "error", err)
		writeInternalError(w, "failed to create entry")
		return
	}

	// Setup outcome lands in the entry state; the create already succeeded.
	_ = s.manager.SetupEntry(r.Context(), entry.ID)

	created, err := s.entryRepo.GetByID(r.Context(), entry.ID)
	if err != nil {
		created = entry
	}
	writeJSON(w, http.StatusCreated, entrySummary(created))
}

// handleUpdateEntryOptions replaces an entry's options and reloads it so
// the new options take effect.
func (s *Server) handleUpdateEntryOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var options map[string]any
	if err := json.NewDecoder(r.Body).Decode(&options); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	entry, err := s.entryRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, platform.ErrEntryNotFound) {
			writeNotFound(w, "entry not found")
			return
		}
		s.logger.Error("loading entry failed", "entry_id", id, "error", err)
		writeInternalError(w, "failed to load entry")
		return
	}

	entry.Options = options
	if err := s.entryRepo.Update(r.Context(), entry); err != nil {
		s.logger.Error("updating entry failed", "entry_id", id, "error", err)
		writeInternalError(w, "failed to update entry")
		return
	}

	s.reloadEntry(r, id)

	updated, err := s.entryRepo.GetByID(r.Context(), id)
	if err != nil {
		updated = entry
	}
	writeJSON(w, http.StatusOK, entrySummary(updated))
}

// handleDeleteEntry unloads an entry if loaded and removes it.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.UnloadEntry(r.Context(), id); err != nil &&
		!errors.Is(err, platform.ErrEntryNotLoaded) {
		s.logger.Warn("unloading entry before delete failed", "entry_id", id, "error", err)
	}

	if err := s.entryRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, platform.ErrEntryNotFound) {
			writeNotFound(w, "entry not found")
			return
		}
		s.logger.Error("deleting entry failed", "entry_id", id, "error", err)
		writeInternalError(w, "failed to delete entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleReloadEntry unloads and re-sets-up an entry.
func (s *Server) handleReloadEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.entryRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, platform.ErrEntryNotFound) {
			writeNotFound(w, "entry not found")
			return
		}
		s.logger.Error("loading entry failed", "entry_id", id, "error", err)
		writeInternalError(w, "failed to load entry")
		return
	}

	s.reloadEntry(r, id)

	entry, err := s.entryRepo.GetByID(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to load entry")
		return
	}
	writeJSON(w, http.StatusOK, entrySummary(entry))
}

// reloadEntry performs a best-effort unload followed by setup. Setup
// failures are persisted on the entry state, not surfaced here.
func (s *Server) reloadEntry(r *http.Request, id string) {
	if err := s.manager.UnloadEntry(r.Context(), id); err != nil &&
		!errors.Is(err, platform.ErrEntryNotLoaded) {
		s.logger.Warn("unloading entry failed", "entry_id", id, "error", err)
	}
	_ = s.manager.SetupEntry(r.Context(), id)
}

// entrySummary flattens an entry for API responses, dropping the data
// payload that may hold credentials.
func entrySummary(e *platform.ConfigEntry) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"domain":       e.Domain,
		"title":        e.Title,
		"unique_id":    e.UniqueID,
		"options":      e.Options,
		"state":        string(e.State),
		"state_reason": e.StateReason,
		"created_at":   e.CreatedAt,
		"updated_at":   e.UpdatedAt,
	}
}
