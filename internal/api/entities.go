package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakfield/hearth-core/internal/platform"
)

// imager is satisfied by entities that can produce a still image,
// such as camera entities.
type imager interface {
	Image(ctx context.Context) ([]byte, error)
}

// handleListEntities returns all registered entities with their state.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	entities := s.registry.List()

	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, entitySummary(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetEntity returns one entity by unique ID.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entity, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, platform.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		s.logger.Error("loading entity failed", "entity_id", id, "error", err)
		writeInternalError(w, "failed to load entity")
		return
	}

	writeJSON(w, http.StatusOK, entitySummary(entity))
}

// handleEntityImage returns a still image from a camera entity.
//
// A nil image with no error means the camera is temporarily unavailable,
// which maps to 503 so clients can retry.
func (s *Server) handleEntityImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entity, err := s.registry.Get(id)
	if err != nil {
		writeNotFound(w, "entity not found")
		return
	}

	camera, ok := entity.(imager)
	if !ok {
		writeBadRequest(w, "entity does not provide images")
		return
	}

	image, err := camera.Image(r.Context())
	if err != nil {
		s.logger.Error("camera image failed", "entity_id", id, "error", err)
		writeInternalError(w, "failed to fetch image")
		return
	}
	if image == nil {
		writeUnavailable(w, "camera image temporarily unavailable")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write; client may have gone away
	w.Write(image)
}

// handleWeatherConditions returns current conditions from every weather
// entity, a convenience view over the entity list.
func (s *Server) handleWeatherConditions(w http.ResponseWriter, _ *http.Request) {
	out := make([]map[string]any, 0)
	for _, e := range s.registry.List() {
		if e.Domain() != "weather" {
			continue
		}
		out = append(out, entitySummary(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// entitySummary flattens an entity for API responses.
func entitySummary(e platform.Entity) map[string]any {
	return map[string]any{
		"unique_id": e.UniqueID(),
		"name":      e.Name(),
		"domain":    e.Domain(),
		"available": e.Available(),
		"state":     e.State(),
	}
}
