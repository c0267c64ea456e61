package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/service"
)

// multipartOverhead is allowed on top of the file payload for form boundaries and headers.
const multipartOverhead = 1 << 20

// UploadHandler accepts multipart image uploads.
type UploadHandler struct {
	uploadSvc *service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadSvc *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadSvc: uploadSvc}
}

// UploadImage handles POST /api/upload/image with form field "image".
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	files, err := readImages(w, r, "image", 1)
	if err != nil {
		RespondError(w, err)
		return
	}
	res, err := h.uploadSvc.UploadImage(r.Context(), files[0], r.FormValue("folder"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// UploadImages handles POST /api/upload/images with repeated form field "images".
func (h *UploadHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	files, err := readImages(w, r, "images", service.MaxUploadFiles)
	if err != nil {
		RespondError(w, err)
		return
	}
	res, err := h.uploadSvc.UploadImages(r.Context(), files, r.FormValue("folder"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// DeleteImage handles DELETE /api/upload/image/{publicId}.
func (h *UploadHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.uploadSvc.DeleteImage(r.Context(), chi.URLParam(r, "publicId")); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}

// Optimize handles GET /api/upload/optimize/{publicId} with optional width,
// height, quality and format query parameters. Public ids may contain folders.
func (h *UploadHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	img, err := h.uploadSvc.OptimizeImage(chi.URLParam(r, "*"), service.OptimizeInput{
		Width:   q.Get("width"),
		Height:  q.Get("height"),
		Quality: q.Get("quality"),
		Format:  q.Get("format"),
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, img)
}

func readImages(w http.ResponseWriter, r *http.Request, field string, maxFiles int) ([]service.ImageFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*service.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(service.MaxUploadBytes); err != nil {
		return nil, domain.ErrValidation("invalid multipart form or file too large")
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, domain.ErrValidation("please upload an image")
	}
	if len(headers) > maxFiles {
		return nil, domain.ErrValidation("too many images")
	}

	files := make([]service.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) (service.ImageFile, error) {
	if fh.Size > service.MaxUploadBytes {
		return service.ImageFile{}, domain.ErrValidation(fh.Filename + ": file exceeds 5 MiB")
	}
	f, err := fh.Open()
	if err != nil {
		return service.ImageFile{}, domain.ErrValidation("unreadable upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadBytes+1))
	if err != nil {
		return service.ImageFile{}, domain.ErrValidation("unreadable upload")
	}
	return service.ImageFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
