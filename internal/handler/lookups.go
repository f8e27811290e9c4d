package handler

import (
	"net/http"

	"github.com/osse101/opitemdb/internal/catalog"
	"github.com/osse101/opitemdb/internal/domain"
)

// LookupHandler serves the item metadata lists
type LookupHandler struct {
	svc catalog.Service
}

// NewLookupHandler creates a lookup handler
func NewLookupHandler(svc catalog.Service) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// HandleLookups returns the handler for one of item_types, materials or rarities
// @Summary List lookup entries
// @Description Entries are ordered by sort, then label.
// @Tags lookups
// @Produce json
// @Success 200 {array} domain.Lookup
// @Router /api/item_types [get]
// @Router /api/materials [get]
// @Router /api/rarities [get]
func (h *LookupHandler) HandleLookups(kind domain.LookupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.svc.Lookups(r.Context(), kind)
		if err != nil {
			respondServiceError(w, r, "list "+string(kind), err)
			return
		}
		respondJSON(w, http.StatusOK, entries)
	}
}

// HandleEnchantments returns the enchantment definitions
// @Summary List enchantments
// @Tags lookups
// @Produce json
// @Success 200 {array} domain.Enchantment
// @Router /api/enchantments [get]
func (h *LookupHandler) HandleEnchantments(w http.ResponseWriter, r *http.Request) {
	defs, err := h.svc.Enchantments(r.Context())
	if err != nil {
		respondServiceError(w, r, "list enchantments", err)
		return
	}
	respondJSON(w, http.StatusOK, defs)
}
