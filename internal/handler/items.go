package handler

import (
	"net/http"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/catalog"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
)

// ItemHandler serves the /api/items routes
type ItemHandler struct {
	svc catalog.Service
}

// NewItemHandler creates an item handler
func NewItemHandler(svc catalog.Service) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// HandleList returns one page of items
// @Summary List items
// @Description Published items are public. is_published=false lists pending items: all of them for moderators, the caller's own for members.
// @Tags items
// @Produce json
// @Param type query string false "Item type slug"
// @Param material query string false "Material slug"
// @Param rarity query string false "Rarity slug"
// @Param search query string false "Text search on title and description"
// @Param page query int false "Page, starting at 1"
// @Param page_size query string false "Page size (1-100) or all"
// @Param is_published query bool false "Publication state"
// @Success 200 {object} domain.ItemPage
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/items [get]
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, fields := parseItemQuery(r)
	if fields != nil {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: ErrMsgInvalidQuery, Fields: fields})
		return
	}

	page, err := h.svc.ListItems(r.Context(), auth.UserFromContext(r.Context()), q)
	if err != nil {
		respondServiceError(w, r, "list items", err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// HandleGet returns one item with its enchantments
// @Summary Get item
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} domain.Item
// @Failure 404 {object} ErrorResponse
// @Router /api/items/{id} [get]
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	item, err := h.svc.GetItem(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, "get item", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// HandleCreate creates an item owned by the caller
// @Summary Create item
// @Description Members always create pending items; moderators may publish directly.
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.NewItem true "Item"
// @Success 201 {object} domain.Item
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/items [post]
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.NewItem
	if !decodeAndValidate(w, r, &req, "create item") {
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), *user, req)
	if err != nil {
		respondServiceError(w, r, "create item", err)
		return
	}
	logger.FromContext(r.Context()).Info("Item submitted", "item_id", item.ID, "published", item.IsPublished)
	respondJSON(w, http.StatusCreated, item)
}

// HandleUpdate applies a partial update
// @Summary Update item
// @Description Only moderators may change is_published. Owners and moderators may edit title, description and star_level.
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param patch body domain.ItemPatch true "Changes"
// @Success 200 {object} domain.Item
// @Failure 400 {object} ValidationErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/items/{id} [patch]
func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var patch domain.ItemPatch
	if !decodeAndValidate(w, r, &patch, "update item") {
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), *user, id, patch)
	if err != nil {
		respondServiceError(w, r, "update item", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// HandleDelete removes an item. Deleting a pending item rejects it.
// @Summary Delete item
// @Tags items
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/items/{id} [delete]
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}

	if err := h.svc.DeleteItem(r.Context(), *user, id); err != nil {
		respondServiceError(w, r, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVersions returns the version history of an item, newest first
// @Summary Item versions
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 200 {array} domain.ItemVersion
// @Failure 403 {object} ErrorResponse
// @Router /api/items/{id}/versions [get]
func (h *ItemHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}

	versions, err := h.svc.ListVersions(r.Context(), *user, id)
	if err != nil {
		respondServiceError(w, r, "list versions", err)
		return
	}
	respondJSON(w, http.StatusOK, versions)
}
