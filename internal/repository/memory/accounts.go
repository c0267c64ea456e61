// Package memory provides in-process implementations of the repository
// interfaces. They back the memory store driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/repository"
)

// AccountRepository is a mutex-guarded account store. Uniqueness of email,
// username and firebase uid is checked under the same lock as the insert.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]domain.Account
}

// NewAccountRepository returns an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[uuid.UUID]domain.Account)}
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.accounts {
		if clashes(&existing, a) {
			return repository.ErrConflict
		}
	}
	r.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *AccountRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	c := copyAccount(&a)
	return &c, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(email)
	return r.find(func(a *domain.Account) bool { return strings.ToLower(a.Email) == email })
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	username = strings.ToLower(username)
	return r.find(func(a *domain.Account) bool {
		return a.Username != nil && strings.ToLower(*a.Username) == username
	})
}

func (r *AccountRepository) FindByFirebaseUID(_ context.Context, uid string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.FirebaseUID != nil && *a.FirebaseUID == uid })
}

func (r *AccountRepository) FindByResetTokenHash(_ context.Context, hash string) (*domain.Account, error) {
	if hash == "" {
		return nil, nil
	}
	return r.find(func(a *domain.Account) bool { return a.ResetTokenHash == hash })
}

func (r *AccountRepository) MarkVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		a.MarkVerified(at)
		return nil
	})
}

func (r *AccountRepository) Decide(_ context.Context, id uuid.UUID, d domain.Decision) error {
	return r.mutate(id, func(a *domain.Account) error {
		if err := a.Decide(d.Status, d.Notes, d.At); err != nil {
			return repository.ErrStale
		}
		return nil
	})
}

func (r *AccountRepository) UpdateProfile(_ context.Context, p *domain.Account) error {
	return r.mutate(p.ID, func(a *domain.Account) error {
		a.FirstName = p.FirstName
		a.LastName = p.LastName
		a.Phone = p.Phone
		a.PreferredSports = append([]string{}, p.PreferredSports...)
		a.SkillLevel = p.SkillLevel
		a.Location = p.Location
		a.Avatar = p.Avatar
		a.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *AccountRepository) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		a.LastLogin = &at
		return nil
	})
}

func (r *AccountRepository) SetPassword(_ context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		a.PasswordHash = hash
		a.ResetTokenHash = ""
		a.ResetTokenExpiry = nil
		a.UpdatedAt = at
		return nil
	})
}

func (r *AccountRepository) SetResetToken(_ context.Context, id uuid.UUID, hash string, expiry *time.Time, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		a.ResetTokenHash = hash
		a.ResetTokenExpiry = expiry
		if hash == "" {
			a.ResetTokenExpiry = nil
		}
		a.UpdatedAt = at
		return nil
	})
}

func (r *AccountRepository) BindIdentity(_ context.Context, id uuid.UUID, uid, avatar string, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		if a.FirebaseUID == nil && uid != "" {
			for otherID, other := range r.accounts {
				if otherID != id && other.FirebaseUID != nil && *other.FirebaseUID == uid {
					return repository.ErrConflict
				}
			}
			a.FirebaseUID = &uid
		}
		if a.Avatar == "" {
			a.Avatar = avatar
		}
		a.UpdatedAt = at
		return nil
	})
}

func (r *AccountRepository) PromoteAdmin(_ context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.mutate(id, func(a *domain.Account) error {
		a.Role = domain.RoleAdmin
		a.ApprovalStatus = domain.ApprovalApproved
		a.ApprovedByAdmin = true
		a.MarkVerified(at)
		a.Active, a.Blocked = true, false
		a.PasswordHash = hash
		a.ResetTokenHash = ""
		a.ResetTokenExpiry = nil
		return nil
	})
}

// mutate applies fn to the stored account under the write lock. The change
// is kept only if fn succeeds.
func (r *AccountRepository) mutate(id uuid.UUID, fn func(*domain.Account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a := copyAccount(&stored)
	if err := fn(&a); err != nil {
		return err
	}
	r.accounts[id] = a
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

func (r *AccountRepository) List(_ context.Context, f domain.AccountFilter) ([]domain.Account, int, error) {
	r.mu.RLock()
	var matched []domain.Account
	for _, a := range r.accounts {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if f.Status != "" && a.ApprovalStatus != f.Status {
			continue
		}
		matched = append(matched, copyAccount(&a))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, f.Offset, f.Limit), len(matched), nil
}

func (r *AccountRepository) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(&a) {
			c := copyAccount(&a)
			return &c, nil
		}
	}
	return nil, nil
}

func clashes(existing, a *domain.Account) bool {
	if strings.EqualFold(existing.Email, a.Email) {
		return true
	}
	if existing.Username != nil && a.Username != nil && strings.EqualFold(*existing.Username, *a.Username) {
		return true
	}
	if existing.FirebaseUID != nil && a.FirebaseUID != nil && *existing.FirebaseUID == *a.FirebaseUID {
		return true
	}
	return false
}

func copyAccount(a *domain.Account) domain.Account {
	c := *a
	c.PreferredSports = append([]string{}, a.PreferredSports...)
	if a.Username != nil {
		u := *a.Username
		c.Username = &u
	}
	if a.FirebaseUID != nil {
		uid := *a.FirebaseUID
		c.FirebaseUID = &uid
	}
	return c
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
