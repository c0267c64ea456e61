package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/turfease/platform/internal/dependencies/clock"
)

// CloudinaryConfig holds media host credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// UploadPrefix overrides the API host, e.g. for a local stand-in.
	UploadPrefix string
	Timeout      time.Duration
}

// UploadResult describes one stored image.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int    `json:"size"`
	Folder   string `json:"folder,omitempty"`
	DevMode  bool   `json:"devMode,omitempty"`
}

// UploadFailure reports one image of a batch that could not be stored.
type UploadFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImageTransform selects the delivery variant of a stored image. Empty
// quality and format fall back to automatic selection.
type ImageTransform struct {
	Width   int
	Height  int
	Quality string
	Format  string
}

func (t ImageTransform) String() string {
	quality, format := t.Quality, t.Format
	if quality == "" {
		quality = "auto"
	}
	if format == "" {
		format = "auto"
	}
	parts := []string{"f_" + format}
	if t.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(t.Height))
	}
	parts = append(parts, "q_"+quality)
	if t.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(t.Width))
	}
	return strings.Join(parts, ",")
}

// CloudinaryClient uploads, deletes and transforms images on Cloudinary.
// Without credentials it runs in placeholder mode.
type CloudinaryClient struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// NewCloudinaryClient creates a new media host client.
func NewCloudinaryClient(cfg CloudinaryConfig, c clock.Clock, logger *slog.Logger) *CloudinaryClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := &CloudinaryClient{timeout: cfg.Timeout, clock: c, logger: logger}
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return client
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		logger.Warn("cloudinary client init failed, using placeholder uploads", "error", err)
		return client
	}
	cld.Config.URL.Secure = true
	if cfg.UploadPrefix != "" {
		cld.Config.API.UploadPrefix = cfg.UploadPrefix
	}
	client.cld = cld
	return client
}

// Configured reports whether real credentials are present.
func (c *CloudinaryClient) Configured() bool {
	return c.cld != nil
}

// Upload stores one image under folder. Without credentials a development
// placeholder result is returned.
func (c *CloudinaryClient) Upload(ctx context.Context, data []byte, folder, publicID string) (*UploadResult, error) {
	if !c.Configured() {
		c.logger.Debug("cloudinary credentials not set, returning placeholder upload")
		return c.placeholder(data, folder, publicID), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("upload: %s", resp.Error.Message)
	}

	return &UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Width:    resp.Width,
		Height:   resp.Height,
		Format:   resp.Format,
		Size:     resp.Bytes,
		Folder:   folder,
	}, nil
}

// UploadMany stores each image independently and reports per-image failures.
func (c *CloudinaryClient) UploadMany(ctx context.Context, images [][]byte, folder string) ([]UploadResult, []UploadFailure) {
	var results []UploadResult
	var failures []UploadFailure
	for i, data := range images {
		res, err := c.Upload(ctx, data, folder, "")
		if err != nil {
			c.logger.Warn("image upload failed", "index", i, "error", err)
			failures = append(failures, UploadFailure{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results, failures
}

// Delete removes an image by public id.
func (c *CloudinaryClient) Delete(ctx context.Context, publicID string) error {
	if !c.Configured() {
		c.logger.Debug("cloudinary credentials not set, skipping delete", "public_id", publicID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", publicID, resp.Error.Message)
	}
	if resp.Result != "ok" {
		return fmt.Errorf("destroy %s: %s", publicID, resp.Result)
	}
	return nil
}

// OptimizedURL builds the delivery URL of publicID with the given transform.
func (c *CloudinaryClient) OptimizedURL(publicID string, t ImageTransform) (string, error) {
	if !c.Configured() {
		w, h := t.Width, t.Height
		if w <= 0 {
			w = 800
		}
		if h <= 0 {
			h = 600
		}
		return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", url.PathEscape(publicID), w, h), nil
	}

	img, err := c.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("image %s: %w", publicID, err)
	}
	img.Transformation = t.String()
	return img.String()
}

func (c *CloudinaryClient) placeholder(data []byte, folder, publicID string) *UploadResult {
	stamp := c.clock.Now().UnixNano()
	if publicID == "" {
		publicID = fmt.Sprintf("dev_%d", stamp)
	}
	return &UploadResult{
		URL:      fmt.Sprintf("https://picsum.photos/800/600?random=%d", stamp),
		PublicID: publicID,
		Width:    800,
		Height:   600,
		Format:   "jpg",
		Size:     len(data),
		Folder:   folder,
		DevMode:  true,
	}
}
