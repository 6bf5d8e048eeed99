package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rotorcharter/internal/database"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	apperrors "rotorcharter/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite://:memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.MigrateRecords(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// stepClock makes successive creates strictly ordered.
func stepClock(t *testing.T) {
	t.Helper()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	orig := now
	now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	t.Cleanup(func() { now = orig })
}

func newContact(name, service string) *domain.ContactRecord {
	return &domain.ContactRecord{
		Name:    name,
		Email:   "someone@example.com",
		Service: service,
		Message: "need a ride to " + name,
	}
}

func TestGormRepository_CreateAssignsIdentity(t *testing.T) {
	repo := NewGormContactRepository(openTestDB(t))
	ctx := context.Background()

	first := newContact("Jane Doe", "Scenic Tours")
	second := newContact("Jane Doe", "Scenic Tours")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.ContactStatusNew, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.Name, got.Name)
	assert.Equal(t, first.Message, got.Message)
	assert.Equal(t, first.Service, got.Service)
	assert.False(t, got.Read)
	assert.Nil(t, got.UpdatedAt)
}

func TestGormRepository_GetUnknown(t *testing.T) {
	repo := NewGormContactRepository(openTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormRepository_ListFiltersNewestFirst(t *testing.T) {
	stepClock(t)
	repo := NewGormContactRepository(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newContact(fmt.Sprintf("Guest %d", i), "Charter Flights")))
	}
	special := newContact("Kailani Brooks", "Other")
	require.NoError(t, repo.Create(ctx, special))
	_, err := repo.SetRead(ctx, special.ID, true)
	require.NoError(t, err)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, special.ID, all[0].ID)
	assert.Equal(t, "Guest 0", all[5].Name)

	found, err := repo.List(ctx, ListFilter{Query: "KAILANI"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, special.ID, found[0].ID)

	unread := false
	rest, err := repo.List(ctx, ListFilter{Read: &unread})
	require.NoError(t, err)
	assert.Len(t, rest, 5)

	page, err := repo.List(ctx, ListFilter{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Guest 4", page[0].Name)

	none, err := repo.List(ctx, ListFilter{Status: domain.ContactStatusResolved})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	repo := NewGormContactRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newContact("Jane Doe", "Scenic Tours")))
	discount := newContact("Ohana 50% Group", "Charter Flights")
	require.NoError(t, repo.Create(ctx, discount))
	under := newContact("kai_nui", "Other")
	require.NoError(t, repo.Create(ctx, under))

	for _, tt := range []struct {
		query string
		want  []string
	}{
		{"%", []string{discount.ID}},
		{"50%", []string{discount.ID}},
		{"_", []string{under.ID}},
		{`\`, nil},
	} {
		found, err := repo.List(ctx, ListFilter{Query: tt.query})
		require.NoError(t, err, tt.query)
		ids := make([]string, 0, len(found))
		for _, rec := range found {
			ids = append(ids, rec.ID)
		}
		assert.ElementsMatch(t, tt.want, ids, tt.query)
	}
}

func TestGormRepository_StatusAndReadAreIndependent(t *testing.T) {
	repo := NewGormContactRepository(openTestDB(t))
	ctx := context.Background()

	rec := newContact("Jane Doe", "Scenic Tours")
	require.NoError(t, repo.Create(ctx, rec))

	updated, err := repo.SetRead(ctx, rec.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Read)
	assert.Equal(t, domain.ContactStatusNew, updated.Status)
	require.NotNil(t, updated.UpdatedAt)

	updated, err = repo.SetStatus(ctx, rec.ID, domain.ContactStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusResolved, updated.Status)
	assert.True(t, updated.Read)

	_, err = repo.SetStatus(ctx, "missing", domain.ContactStatusResolved)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.SetRead(ctx, "missing", true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormRepository_ReplaceKeepsIdentity(t *testing.T) {
	repo := NewGormQuoteRepository(openTestDB(t))
	ctx := context.Background()

	rec := &domain.QuoteRecord{
		ServiceType: "Charter Flights",
		FirstName:   "Kai",
		LastName:    "Akana",
		Email:       "kai@example.com",
		Phone:       "808-5550199",
		Company:     "Akana Films",
	}
	require.NoError(t, repo.Create(ctx, rec))
	created := rec.CreatedAt

	replacement := &domain.QuoteRecord{
		ID:          "forged",
		ServiceType: "Aerial Photography",
		FirstName:   "Kai",
		LastName:    "Akana",
		Email:       "kai@example.com",
		Phone:       "808-5550199",
		Status:      domain.QuoteStatusQuoted,
	}
	got, err := repo.Replace(ctx, rec.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "Aerial Photography", got.ServiceType)
	assert.Equal(t, domain.QuoteStatusQuoted, got.Status)
	assert.Empty(t, got.Company)
	require.NotNil(t, got.UpdatedAt)

	_, err = repo.Get(ctx, "forged")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.Replace(ctx, "missing", &domain.QuoteRecord{FirstName: "x"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormRepository_DeleteAndStats(t *testing.T) {
	repo := NewGormQuoteRepository(openTestDB(t))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec := &domain.QuoteRecord{ServiceType: "Other", FirstName: "A", LastName: "B", Email: "a@b.co", Phone: "808-5551234"}
		require.NoError(t, repo.Create(ctx, rec))
		ids = append(ids, rec.ID)
	}
	_, err := repo.SetStatus(ctx, ids[0], domain.QuoteStatusAccepted)
	require.NoError(t, err)
	_, err = repo.SetRead(ctx, ids[1], true)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Unread)
	assert.Equal(t, int64(2), stats.ByStatus[domain.QuoteStatusPending])
	assert.Equal(t, int64(1), stats.ByStatus[domain.QuoteStatusAccepted])

	require.NoError(t, repo.Delete(ctx, ids[2]))
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, ids[2])))

	_, err = repo.Get(ctx, ids[2])
	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, repo.Ping(ctx))
}

func TestListFilter_Bounded(t *testing.T) {
	assert.Equal(t, ListFilter{Limit: DefaultLimit}, ListFilter{Skip: -3}.Bounded())
	assert.Equal(t, MaxLimit, ListFilter{Limit: 10000}.Bounded().Limit)
	assert.Equal(t, 20, ListFilter{Limit: 20}.Bounded().Limit)
}
