package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/provider"
)

const (
	MaxUploadBytes = 5 << 20
	MaxUploadFiles = 5

	maxImageDimension = 4000
)

var deliveryFormats = map[string]bool{
	"auto": true, "jpg": true, "png": true, "webp": true, "avif": true, "gif": true,
}

// MediaStore is the media host used by the upload endpoints.
type MediaStore interface {
	MediaUploader
	UploadMany(ctx context.Context, images [][]byte, folder string) ([]provider.UploadResult, []provider.UploadFailure)
	Delete(ctx context.Context, publicID string) error
	OptimizedURL(publicID string, t provider.ImageTransform) (string, error)
}

// ImageFile is one uploaded file.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f ImageFile) validate() error {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return fmt.Errorf("%s: only image files are allowed", f.Name)
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%s: file is empty", f.Name)
	}
	if len(f.Data) > MaxUploadBytes {
		return fmt.Errorf("%s: file exceeds %d MiB", f.Name, MaxUploadBytes>>20)
	}
	return nil
}

// BatchResult reports a multi-image upload.
type BatchResult struct {
	Images   []provider.UploadResult  `json:"images"`
	Failures []provider.UploadFailure `json:"failed,omitempty"`
}

// UploadService validates images and forwards them to the media host.
type UploadService struct {
	media MediaStore
}

// NewUploadService creates a new UploadService.
func NewUploadService(media MediaStore) *UploadService {
	return &UploadService{media: media}
}

// UploadImage stores a single image under folder.
func (s *UploadService) UploadImage(ctx context.Context, f ImageFile, folder string) (*provider.UploadResult, error) {
	if err := f.validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	res, err := s.media.Upload(ctx, f.Data, folderOrDefault(folder), "")
	if err != nil {
		return nil, domain.ErrDependency("failed to upload image", err)
	}
	return res, nil
}

// UploadImages stores up to MaxUploadFiles images. Partial success is
// reported; it fails only if every image fails.
func (s *UploadService) UploadImages(ctx context.Context, files []ImageFile, folder string) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrValidation("no images provided")
	}
	if len(files) > MaxUploadFiles {
		return nil, domain.ErrValidation(fmt.Sprintf("at most %d images per request", MaxUploadFiles))
	}
	data := make([][]byte, len(files))
	for i, f := range files {
		if err := f.validate(); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		data[i] = f.Data
	}

	images, failures := s.media.UploadMany(ctx, data, folderOrDefault(folder))
	if len(images) == 0 {
		return nil, domain.ErrDependency("failed to upload images", fmt.Errorf("%d of %d uploads failed", len(failures), len(files)))
	}
	return &BatchResult{Images: images, Failures: failures}, nil
}

// DeleteImage removes an image by public id.
func (s *UploadService) DeleteImage(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return domain.ErrValidation("public id is required")
	}
	if err := s.media.Delete(ctx, publicID); err != nil {
		return domain.ErrDependency("failed to delete image", err)
	}
	return nil
}

// OptimizeInput carries the raw query parameters of an optimize request.
type OptimizeInput struct {
	Width   string
	Height  string
	Quality string
	Format  string
}

// OptimizedImage is a delivery URL for a stored image.
type OptimizedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// OptimizeImage returns the delivery URL of publicID resized and re-encoded
// as requested. Quality and format default to automatic selection.
func (s *UploadService) OptimizeImage(publicID string, in OptimizeInput) (*OptimizedImage, error) {
	publicID = strings.Trim(strings.TrimSpace(publicID), "/")
	if publicID == "" {
		return nil, domain.ErrValidation("public id is required")
	}
	t, err := in.transform()
	if err != nil {
		return nil, err
	}
	u, err := s.media.OptimizedURL(publicID, t)
	if err != nil {
		return nil, domain.ErrDependency("failed to generate optimized URL", err)
	}
	return &OptimizedImage{URL: u, PublicID: publicID}, nil
}

func (in OptimizeInput) transform() (provider.ImageTransform, error) {
	var t provider.ImageTransform
	var err error
	if t.Width, err = dimension("width", in.Width); err != nil {
		return t, err
	}
	if t.Height, err = dimension("height", in.Height); err != nil {
		return t, err
	}

	t.Quality = strings.ToLower(strings.TrimSpace(in.Quality))
	if t.Quality != "" && t.Quality != "auto" && !strings.HasPrefix(t.Quality, "auto:") {
		q, err := strconv.Atoi(t.Quality)
		if err != nil || q < 1 || q > 100 {
			return t, domain.ErrValidation("quality must be auto or between 1 and 100")
		}
	}

	t.Format = strings.ToLower(strings.TrimSpace(in.Format))
	if t.Format != "" && !deliveryFormats[t.Format] {
		return t, domain.ErrValidation("unsupported format " + t.Format)
	}
	return t, nil
}

func dimension(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxImageDimension {
		return 0, domain.ErrValidation(fmt.Sprintf("%s must be between 1 and %d", name, maxImageDimension))
	}
	return n, nil
}

func folderOrDefault(folder string) string {
	if folder == "" {
		return turfImageFolder
	}
	return folder
}
