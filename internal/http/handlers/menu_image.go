package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"sapori-restaurant-service/internal/utils"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

const menuImageMaxSide = 1600
const menuImageQuality = 82

// UploadMenuImage accepts a multipart photo, normalizes it to an
// EXIF-corrected JPEG and stores it in the object store, replacing any
// previous image for the item.
func (h *Handler) UploadMenuImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Store == nil {
		response.Error(w, http.StatusServiceUnavailable, "IMAGE_STORE_DISABLED", "Image storage is not configured")
		return
	}

	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}

	var previousURL pgtype.Text
	if err := h.DB.QueryRow(ctx, `select image_url from menu_items where id = $1`, itemID).Scan(&previousURL); err != nil {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxFileSizeBytes)
	if err := r.ParseMultipartForm(h.Config.MaxFileSizeBytes); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file exceeds the size limit")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "An image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Error("image read failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = utils.DetectContentType(data)
	}
	if !utils.ValidateImageContentType(contentType) {
		response.Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", "Unsupported image format")
		return
	}

	encoded, meta, err := utils.EncodeJpegFitInside(data, menuImageMaxSide, menuImageQuality)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_IMAGE", "The uploaded file could not be decoded as an image")
		return
	}

	key := fmt.Sprintf("menu/%d/%d.jpg", itemID, time.Now().UnixNano())
	publicURL, err := h.Store.PutObject(ctx, key, encoded, "image/jpeg")
	if err != nil {
		h.Logger.Error("image upload failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store image")
		return
	}

	if _, err := h.DB.Exec(ctx, `update menu_items set image_url = $1, updated_at = now() where id = $2`, publicURL, itemID); err != nil {
		h.Logger.Error("image url update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to save image")
		return
	}

	if previousURL.Valid && previousURL.String != "" && previousURL.String != publicURL {
		if delErr := h.Store.DeleteURL(ctx, previousURL.String); delErr != nil {
			h.Logger.Warn("previous menu image cleanup failed", zapError(delErr))
		}
	}

	response.Success(w, map[string]any{
		"id":       itemID,
		"imageUrl": publicURL,
		"source": map[string]any{
			"width":  meta.Width,
			"height": meta.Height,
			"format": meta.Format,
		},
	})
}
