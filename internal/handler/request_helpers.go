package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/validation"
)

// Query parameters of GET /api/items
const (
	paramType        = "type"
	paramMaterial    = "material"
	paramRarity      = "rarity"
	paramSearch      = "search"
	paramPage        = "page"
	paramPageSize    = "page_size"
	paramIsPublished = "is_published"

	pageSizeAll     = "all"
	defaultPageSize = 24
	maxPageSize     = 100
	maxJSONBody     = 1 << 20
)

// decodeAndValidate decodes a JSON body into req and validates it. On failure the
// response has been written and the handler should return.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, op string) bool {
	log := logger.FromContext(r.Context())

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		log.Warn(LogMsgDecodeFailed, "op", op, "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, ErrMsgBodyTooLarge)
			return false
		}
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return false
	}

	if err := validation.Struct(req); err != nil {
		fields := validation.FieldErrors(err)
		log.Debug(LogMsgValidationError, "op", op, "fields", fields)
		respondFieldErrors(w, fields)
		return false
	}
	return true
}

// itemIDParam parses the {id} URL parameter
func itemIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidItemID)
		return 0, false
	}
	return id, true
}

// parseItemQuery reads the list query parameters. A nil field map means success.
func parseItemQuery(r *http.Request) (domain.ItemQuery, map[string]string) {
	v := r.URL.Query()
	fields := map[string]string{}

	q := domain.ItemQuery{
		Filters:  domain.FilterSet{},
		Search:   strings.TrimSpace(v.Get(paramSearch)),
		Page:     1,
		PageSize: defaultPageSize,
	}
	for key, param := range map[domain.FilterKey]string{
		domain.FilterType:     paramType,
		domain.FilterMaterial: paramMaterial,
		domain.FilterRarity:   paramRarity,
	} {
		if val := strings.TrimSpace(v.Get(param)); val != "" {
			q.Filters[key] = val
		}
	}

	if raw := v.Get(paramPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fields[paramPage] = "Must be a positive number"
		} else {
			q.Page = page
		}
	}

	switch raw := v.Get(paramPageSize); {
	case raw == "":
	case raw == pageSizeAll:
		q.Page = 1
		q.PageSize = 0
	default:
		size, err := strconv.Atoi(raw)
		switch {
		case err != nil || size < 1:
			fields[paramPageSize] = "Must be a positive number or \"all\""
		case size > maxPageSize:
			fields[paramPageSize] = "Must be at most " + strconv.Itoa(maxPageSize)
		default:
			q.PageSize = size
		}
	}

	if raw := v.Get(paramIsPublished); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			fields[paramIsPublished] = "Must be true or false"
		} else {
			q.Published = &published
		}
	}

	if len(fields) > 0 {
		return q, fields
	}
	return q, nil
}
