package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/repository"
)

// TurfRepository is a mutex-guarded turf store.
type TurfRepository struct {
	mu    sync.RWMutex
	turfs map[uuid.UUID]domain.Turf
}

// NewTurfRepository returns an empty TurfRepository.
func NewTurfRepository() *TurfRepository {
	return &TurfRepository{turfs: make(map[uuid.UUID]domain.Turf)}
}

var _ repository.TurfRepository = (*TurfRepository)(nil)

func (r *TurfRepository) Create(_ context.Context, t *domain.Turf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.turfs[t.ID]; ok {
		return repository.ErrConflict
	}
	r.turfs[t.ID] = copyTurf(t)
	return nil
}

func (r *TurfRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Turf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.turfs[id]
	if !ok {
		return nil, nil
	}
	c := copyTurf(&t)
	return &c, nil
}

func (r *TurfRepository) Update(_ context.Context, t *domain.Turf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.turfs[t.ID]; !ok {
		return repository.ErrNotFound
	}
	r.turfs[t.ID] = copyTurf(t)
	return nil
}

func (r *TurfRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.turfs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.turfs, id)
	return nil
}

func (r *TurfRepository) List(_ context.Context, f domain.TurfFilter) ([]domain.Turf, int, error) {
	r.mu.RLock()
	var matched []domain.Turf
	for _, t := range r.turfs {
		if f.Matches(&t) {
			matched = append(matched, copyTurf(&t))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, f.Offset, f.Limit), len(matched), nil
}

func (r *TurfRepository) Nearby(_ context.Context, lat, lng, maxMeters float64, limit int) ([]domain.Turf, error) {
	r.mu.RLock()
	var matched []domain.Turf
	for _, t := range r.turfs {
		if !t.Approved {
			continue
		}
		d := domain.HaversineMeters(lat, lng, t.Location.Lat, t.Location.Lng)
		if d > maxMeters {
			continue
		}
		c := copyTurf(&t)
		c.DistanceMeters = &d
		matched = append(matched, c)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return *matched[i].DistanceMeters < *matched[j].DistanceMeters
	})
	return paginate(matched, 0, limit), nil
}

func copyTurf(t *domain.Turf) domain.Turf {
	c := *t
	c.Images = append([]string{}, t.Images...)
	c.DistanceMeters = nil
	return c
}
