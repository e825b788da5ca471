package worker

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/thebtf/emocheck/internal/ageprofile"
	"github.com/thebtf/emocheck/internal/catalog"
)

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if !s.ready.Load() {
		status, code = "starting", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// parseAge reads the required "age" query parameter.
func parseAge(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("age")
	age, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: age must be an integer, got %q", errBadRequest, raw)
	}
	return age, nil
}

func (s *Service) handleProfile(w http.ResponseWriter, r *http.Request) {
	age, err := parseAge(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ageprofile.Resolve(age))
}

// CatalogResponse lists the selectable items, filtered to an age when given.
type CatalogResponse struct {
	Moods           []catalog.Mood           `json:"moods"`
	Colors          []catalog.Color          `json:"colors"`
	SpaceItems      []catalog.SpaceItem      `json:"space_items"`
	ExpressionModes []catalog.ExpressionMode `json:"expression_modes"`
}

func (s *Service) handleCatalog(w http.ResponseWriter, r *http.Request) {
	resp := CatalogResponse{
		Moods:           s.catalog.Moods(),
		Colors:          s.catalog.Colors(),
		SpaceItems:      s.catalog.SpaceItems(),
		ExpressionModes: s.catalog.ExpressionModes(),
	}
	if r.URL.Query().Has("age") {
		age, err := parseAge(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		resp.ExpressionModes = s.catalog.ModesForAge(ageprofile.Clamp(age))
	}
	respondJSON(w, http.StatusOK, resp)
}
