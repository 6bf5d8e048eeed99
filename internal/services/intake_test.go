package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotorcharter/internal/database"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/normalize"
	"rotorcharter/internal/store"
	apperrors "rotorcharter/pkg/errors"
)

func validContact() normalize.Payload {
	return normalize.Payload{
		"name":    "Jane Doe",
		"email":   "jane@x.com",
		"phone":   "8085551234",
		"service": "Scenic Tours",
		"message": "hello",
	}
}

func savingRepo() *contactRepoMock {
	return &contactRepoMock{
		CreateFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			rec.Stamp("c-1", time.Now().UTC())
			return nil
		},
	}
}

func newContactService(repo store.Repository[domain.ContactRecord], side *contactSideChannelMock) *ContactService {
	return NewContactService(repo, normalize.New("US"), side, side, Options{
		NotifyTimeout:  time.Second,
		ForwardTimeout: time.Second,
	}, logging.Discard())
}

func waitForwards(t *testing.T, s *ContactService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSubmit_Success(t *testing.T) {
	repo := savingRepo()
	side := &contactSideChannelMock{}
	svc := newContactService(repo, side)

	result, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)

	assert.Equal(t, "c-1", result.Record.ID)
	assert.Equal(t, "808-5551234", result.Record.Phone)
	assert.Equal(t, domain.ContactStatusNew, result.Record.Status)
	assert.False(t, result.EmailError)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, 1, side.NotifyCalls())
	assert.Equal(t, 1, side.ForwardCalls())
}

func TestSubmit_ValidationFailureHasNoSideEffects(t *testing.T) {
	repo := &contactRepoMock{}
	side := &contactSideChannelMock{}
	svc := newContactService(repo, side)

	p := validContact()
	delete(p, "email")
	_, err := svc.Submit(context.Background(), p)
	waitForwards(t, svc)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "email")
	assert.Zero(t, repo.Calls("Create"))
	assert.Zero(t, side.NotifyCalls())
	assert.Zero(t, side.ForwardCalls())
}

func TestSubmit_PersistFailureSkipsSideChannels(t *testing.T) {
	repo := &contactRepoMock{
		CreateFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			return apperrors.Persistence("save contact", errors.New("connection refused"))
		},
	}
	side := &contactSideChannelMock{}
	svc := newContactService(repo, side)

	result, err := svc.Submit(context.Background(), validContact())
	waitForwards(t, svc)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Zero(t, side.NotifyCalls())
	assert.Zero(t, side.ForwardCalls())
}

func TestSubmit_NotificationFailureFlagsResult(t *testing.T) {
	side := &contactSideChannelMock{
		ContactReceivedFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			return apperrors.Wrap(apperrors.ErrCodeNotification, "failed to send notification email", errors.New("smtp down"))
		},
	}
	svc := newContactService(savingRepo(), side)

	result, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)

	assert.True(t, result.EmailError)
	assert.Equal(t, "c-1", result.Record.ID)
	assert.Equal(t, 1, side.ForwardCalls())
}

func TestSubmit_ForwardingFailureIsInvisible(t *testing.T) {
	side := &contactSideChannelMock{
		ForwardContactFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			return apperrors.New(apperrors.ErrCodeForwarding, "lead endpoint returned 500")
		},
	}
	svc := newContactService(savingRepo(), side)

	result, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)

	assert.False(t, result.EmailError)
	assert.Equal(t, 1, side.ForwardCalls())
}

func TestSubmit_ForwardingPanicIsContained(t *testing.T) {
	side := &contactSideChannelMock{
		ForwardContactFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			panic("boom")
		},
	}
	svc := newContactService(savingRepo(), side)

	_, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)
}

func TestSubmit_NotificationPanicFlagsResult(t *testing.T) {
	repo := savingRepo()
	side := &contactSideChannelMock{
		ContactReceivedFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			panic("smtp client bug")
		},
	}
	svc := newContactService(repo, side)

	var result *SubmitResult[domain.ContactRecord]
	var err error
	require.NotPanics(t, func() {
		result, err = svc.Submit(context.Background(), validContact())
	})
	require.NoError(t, err)
	waitForwards(t, svc)

	require.NotNil(t, result)
	assert.True(t, result.EmailError)
	assert.Equal(t, "c-1", result.Record.ID)
	assert.Equal(t, 1, repo.Calls("Create"))
	assert.Equal(t, 1, side.ForwardCalls())
}

func TestSubmit_SlowForwardingDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	side := &contactSideChannelMock{
		ForwardContactFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			<-release
			return nil
		},
	}
	svc := newContactService(savingRepo(), side)

	done := make(chan struct{})
	go func() {
		_, err := svc.Submit(context.Background(), validContact())
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit waited for crm forwarding")
	}
	close(release)
	waitForwards(t, svc)
}

func TestSubmit_ForwardingIsBoundedByTimeout(t *testing.T) {
	var forwardErr error
	side := &contactSideChannelMock{
		ForwardContactFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			<-ctx.Done()
			forwardErr = ctx.Err()
			return forwardErr
		},
	}
	svc := NewContactService(savingRepo(), normalize.New("US"), side, side, Options{
		NotifyTimeout:  time.Second,
		ForwardTimeout: 20 * time.Millisecond,
	}, logging.Discard())

	_, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)
	assert.ErrorIs(t, forwardErr, context.DeadlineExceeded)
}

func TestSubmit_SurvivesCancelledRequest(t *testing.T) {
	repo := &contactRepoMock{
		CreateFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			if ctx.Err() != nil {
				return apperrors.Persistence("save contact", ctx.Err())
			}
			rec.Stamp("c-1", time.Now().UTC())
			return nil
		},
	}
	side := &contactSideChannelMock{
		ContactReceivedFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			return ctx.Err()
		},
	}
	svc := newContactService(repo, side)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Submit(ctx, validContact())
	require.NoError(t, err)
	waitForwards(t, svc)
	assert.False(t, result.EmailError)
}

func TestSubmit_NotificationFailureKeepsStoredRecord(t *testing.T) {
	db, err := database.Open("sqlite://:memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.MigrateRecords(db))
	t.Cleanup(func() { _ = database.Close(db) })

	repo := store.NewGormContactRepository(db)
	side := &contactSideChannelMock{
		ContactReceivedFunc: func(ctx context.Context, rec *domain.ContactRecord) error {
			return errors.New("relay refused")
		},
	}
	svc := newContactService(repo, side)

	result, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	waitForwards(t, svc)
	assert.True(t, result.EmailError)

	stored, err := svc.Get(context.Background(), result.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Name)
	assert.Equal(t, "808-5551234", stored.Phone)
}

func TestSetStatus(t *testing.T) {
	repo := &contactRepoMock{
		SetStatusFunc: func(ctx context.Context, id, status string) (*domain.ContactRecord, error) {
			if id != "c-1" {
				return nil, apperrors.NotFound("contact", id)
			}
			return &domain.ContactRecord{ID: id, Status: status, Read: true}, nil
		},
	}
	svc := newContactService(repo, &contactSideChannelMock{})
	ctx := context.Background()

	rec, err := svc.SetStatus(ctx, "c-1", domain.ContactStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusResolved, rec.Status)

	_, err = svc.SetStatus(ctx, "c-1", domain.QuoteStatusAccepted)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "resolved")

	_, err = svc.SetStatus(ctx, "nope", domain.ContactStatusResolved)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 2, repo.Calls("SetStatus"))
}

func TestUpdate_KeepsTriageUnlessGiven(t *testing.T) {
	existing := &domain.ContactRecord{ID: "c-1", Status: domain.ContactStatusContacted, Read: true}
	var replaced *domain.ContactRecord
	repo := &contactRepoMock{
		GetFunc: func(ctx context.Context, id string) (*domain.ContactRecord, error) {
			if id != existing.ID {
				return nil, apperrors.NotFound("contact", id)
			}
			return existing, nil
		},
		ReplaceFunc: func(ctx context.Context, id string, rec *domain.ContactRecord) (*domain.ContactRecord, error) {
			replaced = rec
			return rec, nil
		},
	}
	svc := newContactService(repo, &contactSideChannelMock{})
	ctx := context.Background()

	p := validContact()
	p["service"] = "Helicopter Yoga"
	_, err := svc.Update(ctx, "c-1", p)
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, domain.ContactStatusContacted, replaced.Status)
	assert.True(t, replaced.Read)
	assert.Equal(t, domain.ServiceOther, replaced.Service)

	p["status"] = domain.ContactStatusResolved
	p["read"] = false
	_, err = svc.Update(ctx, "c-1", p)
	require.NoError(t, err)
	assert.Equal(t, domain.ContactStatusResolved, replaced.Status)
	assert.False(t, replaced.Read)

	p["status"] = "archived"
	_, err = svc.Update(ctx, "c-1", p)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Update(ctx, "missing", validContact())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestList_RejectsUnknownStatusFilter(t *testing.T) {
	repo := &contactRepoMock{
		ListFunc: func(ctx context.Context, f store.ListFilter) ([]domain.ContactRecord, error) {
			return []domain.ContactRecord{{ID: "c-1"}}, nil
		},
	}
	svc := newContactService(repo, &contactSideChannelMock{})

	_, err := svc.List(context.Background(), store.ListFilter{Status: "pending"})
	assert.True(t, apperrors.IsValidation(err))

	records, err := svc.List(context.Background(), store.ListFilter{Status: domain.ContactStatusNew})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
