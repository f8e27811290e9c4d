package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/storage"
)

// StorageHandler serves the hosted-storage compatible object routes
type StorageHandler struct {
	store      *storage.DiskStore
	publicBase string
}

// NewStorageHandler creates a storage handler whose public URLs start at publicBase
func NewStorageHandler(store *storage.DiskStore, publicBase string) *StorageHandler {
	return &StorageHandler{store: store, publicBase: publicBase}
}

// UploadResponse mirrors the hosted storage upload response
type UploadResponse struct {
	Key       string `json:"Key"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// RemoveRequest is the body of a bulk delete
type RemoveRequest struct {
	Prefixes []string `json:"prefixes" validate:"required,min=1,max=100,dive,required"`
}

// RemoveResponse lists the objects that were removed
type RemoveResponse struct {
	Removed []string `json:"removed"`
}

// HandleUpload stores an image under the caller's user ID
// @Summary Upload object
// @Description The first path segment must be the caller's user ID. Objects are never overwritten.
// @Tags storage
// @Accept image/png,image/jpeg,image/webp,image/gif
// @Produce json
// @Security BearerAuth
// @Param bucket path string true "Bucket"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /storage/v1/object/{bucket}/{path} [post]
func (h *StorageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}

	bucket := chi.URLParam(r, "bucket")
	objectPath, err := storage.CleanPath(chi.URLParam(r, "*"))
	if err != nil {
		respondServiceError(w, r, "upload object", err)
		return
	}
	if storage.OwnerPrefix(objectPath) != user.ID {
		log.Warn(LogMsgUploadRejected, "reason", "owner prefix", "path", objectPath, "user_id", user.ID)
		respondError(w, http.StatusForbidden, ErrMsgOwnerPrefix)
		return
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	_, knownExt := domain.AllowedImageTypes[strings.ToLower(path.Ext(objectPath))]
	if !domain.IsAllowedImageMIME(contentType) || !knownExt {
		log.Warn(LogMsgUploadRejected, "reason", "content type", "content_type", contentType, "path", objectPath)
		respondError(w, http.StatusUnsupportedMediaType, ErrMsgUnsupportedMedia)
		return
	}
	if r.ContentLength > domain.MaxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, ErrMsgBodyTooLarge)
		return
	}

	if _, err := h.store.Put(bucket, objectPath, r.Body, domain.MaxUploadBytes); err != nil {
		if errors.Is(err, storage.ErrObjectTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, ErrMsgBodyTooLarge)
			return
		}
		respondServiceError(w, r, "upload object", err)
		return
	}

	respondJSON(w, http.StatusCreated, UploadResponse{
		Key:       bucket + "/" + objectPath,
		Path:      objectPath,
		PublicURL: storage.PublicURL(h.publicBase, bucket, objectPath),
	})
}

// HandleRemove deletes objects owned by the caller; moderators may delete any object
// @Summary Remove objects
// @Tags storage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bucket path string true "Bucket"
// @Param body body RemoveRequest true "Object paths"
// @Success 200 {object} RemoveResponse
// @Failure 403 {object} ErrorResponse
// @Router /storage/v1/object/{bucket} [delete]
func (h *StorageHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthenticated)
		return
	}
	var req RemoveRequest
	if !decodeAndValidate(w, r, &req, "remove objects") {
		return
	}

	paths := make([]string, 0, len(req.Prefixes))
	for _, p := range req.Prefixes {
		cleaned, err := storage.CleanPath(p)
		if err != nil {
			respondServiceError(w, r, "remove objects", err)
			return
		}
		if !user.CanManage(storage.OwnerPrefix(cleaned)) {
			respondError(w, http.StatusForbidden, ErrMsgOwnerPrefix)
			return
		}
		paths = append(paths, cleaned)
	}

	removed, err := h.store.Delete(chi.URLParam(r, "bucket"), paths)
	if err != nil {
		respondServiceError(w, r, "remove objects", err)
		return
	}
	logger.FromContext(r.Context()).Info(LogMsgObjectsRemoved, "count", len(removed), "user_id", user.ID)
	respondJSON(w, http.StatusOK, RemoveResponse{Removed: removed})
}

// HandlePublic serves an object
// @Summary Get public object
// @Tags storage
// @Param bucket path string true "Bucket"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Router /storage/v1/object/public/{bucket}/{path} [get]
func (h *StorageHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	f, contentType, err := h.store.Open(chi.URLParam(r, "bucket"), chi.URLParam(r, "*"))
	if err != nil {
		respondServiceError(w, r, "get object", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondServiceError(w, r, "get object", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
