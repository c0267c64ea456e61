package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/repository"
)

var baseTime = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newAccount(email string, role domain.Role, at time.Time) *domain.Account {
	return domain.NewAccount(domain.AccountParams{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Phone:     "9876543210",
		Role:      role,
	}, at)
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := newAccount("Alice@Example.com", domain.RolePlayer, baseTime)
	require.NoError(t, repo.Create(ctx, a))

	byID, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, a.ID, byEmail.ID)

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountRepository_DuplicateEmailConflicts(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAccount("dup@example.com", domain.RolePlayer, baseTime)))
	err := repo.Create(ctx, newAccount("DUP@example.com", domain.RoleOwner, baseTime))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAccountRepository_SamePhoneAllowed(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAccount("a@example.com", domain.RolePlayer, baseTime)))
	require.NoError(t, repo.Create(ctx, newAccount("b@example.com", domain.RolePlayer, baseTime)))
}

func TestAccountRepository_DuplicateUsernameConflicts(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := newAccount("a@example.com", domain.RolePlayer, baseTime)
	name := "striker"
	a.Username = &name
	require.NoError(t, repo.Create(ctx, a))

	b := newAccount("b@example.com", domain.RolePlayer, baseTime)
	other := "STRIKER"
	b.Username = &other
	assert.ErrorIs(t, repo.Create(ctx, b), repository.ErrConflict)

	found, err := repo.FindByUsername(ctx, "Striker")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.ID, found.ID)
}

func TestAccountRepository_ConcurrentCreateOneWins(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, conflicts int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newAccount("race@example.com", domain.RoleOwner, baseTime))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, repository.ErrConflict)
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, conflicts)
}

func TestAccountRepository_WritesIsolateCopies(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := newAccount("copy@example.com", domain.RolePlayer, baseTime)
	require.NoError(t, repo.Create(ctx, a))

	a.FirstName = "Mutated"
	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test", stored.FirstName)

	require.NoError(t, repo.UpdateProfile(ctx, a))
	stored, err = repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mutated", stored.FirstName)

	ghost := newAccount("ghost@example.com", domain.RolePlayer, baseTime)
	assert.ErrorIs(t, repo.UpdateProfile(ctx, ghost), repository.ErrNotFound)
	assert.ErrorIs(t, repo.MarkVerified(ctx, ghost.ID, baseTime), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Decide(ctx, ghost.ID, domain.Decision{Status: domain.ApprovalApproved}), repository.ErrNotFound)
}

func TestAccountRepository_DecideOnlyOnPendingOwner(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	owner := newAccount("owner@example.com", domain.RoleOwner, baseTime)
	player := newAccount("player@example.com", domain.RolePlayer, baseTime)
	require.NoError(t, repo.Create(ctx, owner))
	require.NoError(t, repo.Create(ctx, player))

	decision := domain.Decision{Status: domain.ApprovalRejected, Notes: "blurry licence", At: baseTime.Add(time.Hour)}
	require.NoError(t, repo.Decide(ctx, owner.ID, decision))
	assert.ErrorIs(t, repo.Decide(ctx, owner.ID, domain.Decision{Status: domain.ApprovalApproved}), repository.ErrStale)
	assert.ErrorIs(t, repo.Decide(ctx, player.ID, decision), repository.ErrStale)

	stored, err := repo.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalRejected, stored.ApprovalStatus)
	assert.False(t, stored.ApprovedByAdmin)
	assert.Equal(t, "blurry licence", stored.ApprovalNotes)
}

func TestAccountRepository_TargetedWritesKeepOtherColumns(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	owner := newAccount("owner@example.com", domain.RoleOwner, baseTime)
	require.NoError(t, repo.Create(ctx, owner))
	stale, err := repo.FindByID(ctx, owner.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Decide(ctx, owner.ID, domain.Decision{Status: domain.ApprovalApproved, At: baseTime}))

	stale.Location = "Pune"
	require.NoError(t, repo.UpdateProfile(ctx, stale))
	require.NoError(t, repo.MarkVerified(ctx, owner.ID, baseTime))
	require.NoError(t, repo.RecordLogin(ctx, owner.ID, baseTime))
	require.NoError(t, repo.SetPassword(ctx, owner.ID, "new-hash", baseTime))

	stored, err := repo.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, stored.ApprovalStatus)
	assert.True(t, stored.ApprovedByAdmin)
	assert.True(t, stored.EmailVerified)
	assert.Equal(t, "Pune", stored.Location)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	require.NotNil(t, stored.LastLogin)
}

func TestAccountRepository_ResetTokenAndIdentity(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := newAccount("a@example.com", domain.RolePlayer, baseTime)
	b := newAccount("b@example.com", domain.RolePlayer, baseTime)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	expiry := baseTime.Add(30 * time.Minute)
	require.NoError(t, repo.SetResetToken(ctx, a.ID, "digest", &expiry, baseTime))
	found, err := repo.FindByResetTokenHash(ctx, "digest")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.ID, found.ID)

	require.NoError(t, repo.SetPassword(ctx, a.ID, "hash", baseTime))
	found, err = repo.FindByResetTokenHash(ctx, "digest")
	require.NoError(t, err)
	assert.Nil(t, found, "a new password clears the reset token")

	require.NoError(t, repo.BindIdentity(ctx, a.ID, "fb-1", "https://img.test/a.png", baseTime))
	require.NoError(t, repo.BindIdentity(ctx, a.ID, "fb-2", "https://img.test/other.png", baseTime))
	bound, err := repo.FindByFirebaseUID(ctx, "fb-1")
	require.NoError(t, err)
	require.NotNil(t, bound)
	assert.Equal(t, "https://img.test/a.png", bound.Avatar)

	assert.ErrorIs(t, repo.BindIdentity(ctx, b.ID, "fb-1", "", baseTime), repository.ErrConflict)
}

func TestAccountRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		o := newAccount(uuid.NewString()+"@owners.com", domain.RoleOwner, baseTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, o))
	}
	require.NoError(t, repo.Create(ctx, newAccount("p@example.com", domain.RolePlayer, baseTime)))

	owners, total, err := repo.List(ctx, domain.AccountFilter{Role: domain.RoleOwner, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, owners, 2)
	assert.True(t, owners[0].CreatedAt.After(owners[1].CreatedAt))

	pending, total, err := repo.List(ctx, domain.AccountFilter{Role: domain.RoleOwner, Status: domain.ApprovalPending, Offset: 4, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, pending, 1)

	all, total, err := repo.List(ctx, domain.AccountFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, all, 6)
}

func TestAccountRepository_FindByResetTokenHash(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := newAccount("reset@example.com", domain.RolePlayer, baseTime)
	a.ResetTokenHash = "abc123"
	require.NoError(t, repo.Create(ctx, a))

	found, err := repo.FindByResetTokenHash(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.ID, found.ID)

	none, err := repo.FindByResetTokenHash(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func newTurf(owner uuid.UUID, lat, lng, price float64, approved bool, at time.Time) *domain.Turf {
	return &domain.Turf{
		ID:           uuid.New(),
		OwnerID:      owner,
		Name:         "Arena",
		Location:     domain.Location{Address: "MG Road", Lat: lat, Lng: lng},
		PricePerHour: price,
		Images:       []string{},
		Approved:     approved,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func TestTurfRepository_ListFilters(t *testing.T) {
	repo := NewTurfRepository()
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, repo.Create(ctx, newTurf(owner, 12.97, 77.59, 500, true, baseTime)))
	require.NoError(t, repo.Create(ctx, newTurf(owner, 12.97, 77.59, 1500, false, baseTime.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newTurf(uuid.New(), 12.97, 77.59, 900, true, baseTime.Add(2*time.Minute))))

	approved := true
	turfs, total, err := repo.List(ctx, domain.TurfFilter{Approved: &approved, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, turfs, 2)

	maxPrice := 1000.0
	turfs, total, err = repo.List(ctx, domain.TurfFilter{OwnerID: &owner, MaxPrice: &maxPrice, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, turfs, 1)
	assert.Equal(t, 500.0, turfs[0].PricePerHour)
}

func TestTurfRepository_NearbySortsByDistance(t *testing.T) {
	repo := NewTurfRepository()
	ctx := context.Background()

	far := newTurf(uuid.New(), 13.00, 77.59, 500, true, baseTime)
	near := newTurf(uuid.New(), 12.971, 77.591, 500, true, baseTime)
	hidden := newTurf(uuid.New(), 12.9705, 77.5905, 500, false, baseTime)
	outOfRange := newTurf(uuid.New(), 19.07, 72.87, 500, true, baseTime)
	for _, tf := range []*domain.Turf{far, near, hidden, outOfRange} {
		require.NoError(t, repo.Create(ctx, tf))
	}

	got, err := repo.Nearby(ctx, 12.97, 77.59, domain.DefaultNearbyDistance, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.Equal(t, far.ID, got[1].ID)
	require.NotNil(t, got[0].DistanceMeters)
	assert.Less(t, *got[0].DistanceMeters, *got[1].DistanceMeters)
}

func TestTurfRepository_DeleteMissing(t *testing.T) {
	repo := NewTurfRepository()
	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), repository.ErrNotFound)
}

func TestOutboxRepository_FetchAndMark(t *testing.T) {
	repo := NewOutboxRepository()
	ctx := context.Background()

	a := newAccount("evt@example.com", domain.RoleOwner, baseTime)
	for _, et := range []domain.EventType{domain.EventAccountRegistered, domain.EventAccountVerified, domain.EventOwnerApproved} {
		require.NoError(t, repo.Insert(ctx, domain.NewAccountEvent(a, et, baseTime)))
	}

	batch, err := repo.FetchUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, domain.EventAccountRegistered, batch[0].EventType)

	require.NoError(t, repo.MarkPublished(ctx, []int64{batch[0].ID, batch[1].ID}))
	rest := repo.Events()
	require.Len(t, rest, 1)
	assert.Equal(t, "turfease.account.owner.approved", rest[0].Topic())
}
