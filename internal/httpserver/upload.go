package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/imagehost"
)

const maxImageSize = 3 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if s.deps.Images == nil {
		writeError(w, http.StatusServiceUnavailable, "Unavailable", "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(64<<10))
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "InvalidRequest", "image must be 3MB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, "InvalidRequest", "no image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "could not read image")
		return
	}
	if len(data) > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "InvalidRequest", "image must be 3MB or smaller")
		return
	}

	mimeType := http.DetectContentType(data)
	if !imagehost.Supported(mimeType) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "only JPEG, PNG and WEBP images are allowed")
		return
	}

	imageURL, err := s.deps.Images.Upload(r.Context(), data, mimeType)
	if err != nil {
		s.logger.Error("image upload failed", "user", user.ID, "error", err)
		writeError(w, http.StatusBadGateway, "UploadFailed", "image upload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}
