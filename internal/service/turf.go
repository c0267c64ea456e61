package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/provider"
	"github.com/turfease/platform/internal/repository"
)

const (
	turfImageFolder = "turfs"
	maxNearby       = 100
	maxOwnerTurfs   = 500
)

// MediaUploader stores image bytes on the media host.
type MediaUploader interface {
	Upload(ctx context.Context, data []byte, folder, publicID string) (*provider.UploadResult, error)
}

// TurfService manages turf listings.
type TurfService struct {
	turfs  repository.TurfRepository
	media  MediaUploader
	clock  clock.Clock
	events eventRecorder
	logger *slog.Logger
}

// NewTurfService creates a new TurfService.
func NewTurfService(
	turfs repository.TurfRepository,
	media MediaUploader,
	clk clock.Clock,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *TurfService {
	return &TurfService{
		turfs:  turfs,
		media:  media,
		clock:  clk,
		events: eventRecorder{outbox: outbox, logger: logger},
		logger: logger,
	}
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationInput is the location part of a turf request.
type LocationInput struct {
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates"`
}

// TurfInput holds create and update fields. Nil fields are left unchanged
// on update. Images may be URLs or base64 data URIs to upload.
type TurfInput struct {
	Name         *string        `json:"name"`
	Location     *LocationInput `json:"location"`
	PricePerHour *float64       `json:"pricePerHour"`
	Images       []string       `json:"images"`
}

func (in TurfInput) validate(create bool) map[string]string {
	fields := map[string]string{}
	if in.Name != nil || create {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		switch {
		case name == "":
			fields["name"] = "please add a turf name"
		case len([]rune(name)) > domain.MaxTurfNameLength:
			fields["name"] = fmt.Sprintf("name can not be more than %d characters", domain.MaxTurfNameLength)
		}
	}
	if in.Location != nil || create {
		switch {
		case in.Location == nil || strings.TrimSpace(in.Location.Address) == "" || in.Location.Coordinates == nil:
			fields["location"] = "please provide complete location information including address and coordinates"
		default:
			if err := domain.ValidateCoordinates(in.Location.Coordinates.Lat, in.Location.Coordinates.Lng); err != nil {
				fields["location"] = err.Error()
			}
		}
	}
	if in.PricePerHour != nil || create {
		if in.PricePerHour == nil || *in.PricePerHour < 0 {
			fields["pricePerHour"] = "please provide a valid price per hour"
		}
	}
	if create && len(in.Images) == 0 {
		fields["images"] = "please add at least one image"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// TurfQuery filters the public listing.
type TurfQuery struct {
	Approved *bool
	MinPrice *float64
	MaxPrice *float64
	Pagination
}

// List returns turfs newest first.
func (s *TurfService) List(ctx context.Context, q TurfQuery) (domain.Page[domain.Turf], error) {
	p := q.Pagination.normalize(DefaultPageSize)
	turfs, total, err := s.turfs.List(ctx, domain.TurfFilter{
		Approved: q.Approved,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Offset:   p.offset(),
		Limit:    p.Limit,
	})
	if err != nil {
		return domain.Page[domain.Turf]{}, domain.ErrInternal("list turfs", err)
	}
	return domain.NewPage(turfs, total, p.Page, p.Limit), nil
}

// Get returns one turf.
func (s *TurfService) Get(ctx context.Context, id uuid.UUID) (*domain.Turf, error) {
	t, err := s.turfs.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("find turf", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound("turf", id.String())
	}
	return t, nil
}

// Create lists a new, unapproved turf for ownerID.
func (s *TurfService) Create(ctx context.Context, ownerID uuid.UUID, in TurfInput) (*domain.Turf, error) {
	if fields := in.validate(true); fields != nil {
		return nil, domain.ErrValidationFields(fields)
	}
	images, err := s.resolveImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := &domain.Turf{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    strings.TrimSpace(*in.Name),
		Location: domain.Location{
			Address: strings.TrimSpace(in.Location.Address),
			Lat:     in.Location.Coordinates.Lat,
			Lng:     in.Location.Coordinates.Lng,
		},
		PricePerHour: *in.PricePerHour,
		Images:       images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.turfs.Create(ctx, t); err != nil {
		return nil, domain.ErrInternal("create turf", err)
	}
	s.logger.InfoContext(ctx, "turf created", "turf_id", t.ID, "owner_id", ownerID)
	return t, nil
}

// Update applies a partial update. Only the turf's owner or an admin may update it.
func (s *TurfService) Update(ctx context.Context, actorID uuid.UUID, role domain.Role, id uuid.UUID, in TurfInput) (*domain.Turf, error) {
	if fields := in.validate(false); fields != nil {
		return nil, domain.ErrValidationFields(fields)
	}
	t, err := s.authorize(ctx, actorID, role, id, "update")
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		t.Location = domain.Location{
			Address: strings.TrimSpace(in.Location.Address),
			Lat:     in.Location.Coordinates.Lat,
			Lng:     in.Location.Coordinates.Lng,
		}
	}
	if in.PricePerHour != nil {
		t.PricePerHour = *in.PricePerHour
	}
	if len(in.Images) > 0 {
		images, err := s.resolveImages(ctx, in.Images)
		if err != nil {
			return nil, err
		}
		t.Images = images
	}
	t.UpdatedAt = s.clock.Now()

	if err := s.turfs.Update(ctx, t); err != nil {
		return nil, storeErr("update turf", err)
	}
	return t, nil
}

// Delete removes a turf. Only the turf's owner or an admin may delete it.
func (s *TurfService) Delete(ctx context.Context, actorID uuid.UUID, role domain.Role, id uuid.UUID) error {
	if _, err := s.authorize(ctx, actorID, role, id, "delete"); err != nil {
		return err
	}
	if err := s.turfs.Delete(ctx, id); err != nil {
		return storeErr("delete turf", err)
	}
	s.logger.InfoContext(ctx, "turf deleted", "turf_id", id, "actor_id", actorID)
	return nil
}

// Mine returns every turf listed by ownerID, newest first.
func (s *TurfService) Mine(ctx context.Context, ownerID uuid.UUID) ([]domain.Turf, error) {
	turfs, _, err := s.turfs.List(ctx, domain.TurfFilter{OwnerID: &ownerID, Limit: maxOwnerTurfs})
	if err != nil {
		return nil, domain.ErrInternal("list owner turfs", err)
	}
	if turfs == nil {
		turfs = []domain.Turf{}
	}
	return turfs, nil
}

// Nearby returns approved turfs within distance meters, closest first.
func (s *TurfService) Nearby(ctx context.Context, lat, lng, distance float64) ([]domain.Turf, error) {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		return nil, domain.ErrValidation("please provide valid latitude and longitude")
	}
	if distance <= 0 {
		distance = domain.DefaultNearbyDistance
	}
	turfs, err := s.turfs.Nearby(ctx, lat, lng, distance, maxNearby)
	if err != nil {
		return nil, domain.ErrInternal("nearby turfs", err)
	}
	if turfs == nil {
		turfs = []domain.Turf{}
	}
	return turfs, nil
}

// Approve marks a turf visible in public searches.
func (s *TurfService) Approve(ctx context.Context, id uuid.UUID) (*domain.Turf, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Approved {
		return t, nil
	}
	now := s.clock.Now()
	t.Approved = true
	t.UpdatedAt = now
	if err := s.turfs.Update(ctx, t); err != nil {
		return nil, storeErr("approve turf", err)
	}
	s.events.record(ctx, domain.NewTurfEvent(t, domain.EventTurfApproved, now))
	return t, nil
}

func (s *TurfService) authorize(ctx context.Context, actorID uuid.UUID, role domain.Role, id uuid.UUID, action string) (*domain.Turf, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != actorID && role != domain.RoleAdmin {
		return nil, domain.ErrUnauthorized(fmt.Sprintf("user %s is not authorized to %s this turf", actorID, action))
	}
	return t, nil
}

// resolveImages keeps URLs as they are and uploads data URIs.
func (s *TurfService) resolveImages(ctx context.Context, images []string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for i, img := range images {
		if !strings.HasPrefix(img, "data:") {
			urls = append(urls, img)
			continue
		}
		data, err := decodeDataURI(img)
		if err != nil {
			return nil, domain.ErrValidationFields(map[string]string{"images": fmt.Sprintf("image %d: %v", i, err)})
		}
		res, err := s.media.Upload(ctx, data, turfImageFolder, "")
		if err != nil {
			return nil, domain.ErrDependency("failed to upload images", err)
		}
		urls = append(urls, res.URL)
	}
	return urls, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("expected a base64 image data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
