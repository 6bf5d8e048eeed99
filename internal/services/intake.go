package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/metrics"
	"rotorcharter/internal/normalize"
	"rotorcharter/internal/store"
	apperrors "rotorcharter/pkg/errors"
)

// Side-channel bounds used when Options leaves them unset.
const (
	DefaultNotifyTimeout  = 10 * time.Second
	DefaultForwardTimeout = 5 * time.Second
)

// Options bounds the side-channels of a submission.
type Options struct {
	NotifyTimeout  time.Duration
	ForwardTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = DefaultNotifyTimeout
	}
	if o.ForwardTimeout <= 0 {
		o.ForwardTimeout = DefaultForwardTimeout
	}
	return o
}

// SubmitResult is what a successful submission reports to the caller.
type SubmitResult[T any] struct {
	Record *T
	// EmailError is set when the record was saved but the notification
	// emails could not be sent.
	EmailError bool
	Message    string
}

type recordPtr[T any] interface {
	*T
	domain.Record
}

// RecordService runs the intake pipeline and the back-office triage
// operations for one record variant.
type RecordService[T any, PT recordPtr[T]] struct {
	kind     string
	thanks   string
	repo     store.Repository[T]
	validate func(normalize.Payload) (*T, error)
	notify   func(context.Context, *T) error
	forward  func(context.Context, *T) error
	statuses []string
	opts     Options
	log      *slog.Logger

	forwards sync.WaitGroup
}

// Submit validates the payload, persists the record and then runs both
// side-channels. Only validation and persistence failures are returned.
// Notification failure is reported through EmailError; forwarding runs in
// the background and never affects the result.
func (s *RecordService[T, PT]) Submit(ctx context.Context, p normalize.Payload) (*SubmitResult[T], error) {
	rec, err := s.validate(p)
	if err != nil {
		s.log.Info("submission rejected", "error", err)
		metrics.RecordSubmission(s.kind, metrics.OutcomeRejected)
		return nil, err
	}

	// A client hanging up must not abort the save or the side-channels.
	ctx = context.WithoutCancel(ctx)

	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error("submission not saved", "error", err)
		metrics.RecordSubmission(s.kind, metrics.OutcomeFailed)
		return nil, err
	}
	id := PT(rec).RecordID()
	s.log.Info("submission saved", "record_id", id)
	metrics.RecordSubmission(s.kind, metrics.OutcomeSaved)

	s.startForward(ctx, *rec)

	result := &SubmitResult[T]{Record: rec, Message: s.thanks}

	if err := s.sendNotification(ctx, rec); err != nil {
		s.log.Warn("notification failed, record kept", "record_id", id, "error", err)
		metrics.RecordNotificationFailure(s.kind)
		result.EmailError = true
		result.Message = s.thanks + " We could not send your confirmation email, but your request was received."
	}
	return result, nil
}

// sendNotification runs the notifier within NotifyTimeout. A panic is
// reported as a notification error since the record is already saved.
func (s *RecordService[T, PT]) sendNotification(ctx context.Context, rec *T) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("notification panicked", "record_id", PT(rec).RecordID(), "panic", r)
			err = apperrors.New(apperrors.ErrCodeNotification, fmt.Sprintf("notification panicked: %v", r))
		}
	}()
	return s.notify(ctx, rec)
}

// startForward sends a copy of rec to the CRM in the background.
func (s *RecordService[T, PT]) startForward(ctx context.Context, rec T) {
	s.forwards.Add(1)
	go func() {
		defer s.forwards.Done()
		id := PT(&rec).RecordID()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("crm forwarding panicked", "record_id", id, "panic", r)
				metrics.RecordForwardingFailure(s.kind)
			}
		}()

		fctx, cancel := context.WithTimeout(ctx, s.opts.ForwardTimeout)
		defer cancel()
		if err := s.forward(fctx, &rec); err != nil {
			s.log.Warn("crm forwarding failed", "record_id", id, "error", err)
			metrics.RecordForwardingFailure(s.kind)
		}
	}()
}

// Wait blocks until background forwarding finishes or ctx is done.
func (s *RecordService[T, PT]) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.forwards.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns records matching f, newest first.
func (s *RecordService[T, PT]) List(ctx context.Context, f store.ListFilter) ([]T, error) {
	if f.Status != "" && !s.validStatus(f.Status) {
		return nil, s.statusError(f.Status)
	}
	return s.repo.List(ctx, f)
}

// Get returns one record.
func (s *RecordService[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return s.repo.Get(ctx, id)
}

// Update replaces a record with a re-validated payload. Status and read keep
// their stored values unless the payload sets them.
func (s *RecordService[T, PT]) Update(ctx context.Context, id string, p normalize.Payload) (*T, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.validate(p)
	if err != nil {
		return nil, err
	}

	status, read := PT(existing).Triage()
	if v := strings.TrimSpace(p.String("status")); v != "" {
		if !s.validStatus(v) {
			return nil, s.statusError(v)
		}
		status = v
	}
	if v, ok := p.Bool("read"); ok {
		read = v
	}
	PT(rec).SetTriage(status, read)

	updated, err := s.repo.Replace(ctx, id, rec)
	if err != nil {
		return nil, err
	}
	s.log.Info("record updated", "record_id", id)
	return updated, nil
}

// SetStatus moves a record to another triage state. Any member of the
// variant's state set may be set from any state.
func (s *RecordService[T, PT]) SetStatus(ctx context.Context, id, status string) (*T, error) {
	status = strings.TrimSpace(status)
	if !s.validStatus(status) {
		return nil, s.statusError(status)
	}
	rec, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("status changed", "record_id", id, "status", status)
	return rec, nil
}

// SetRead sets the read flag without touching status.
func (s *RecordService[T, PT]) SetRead(ctx context.Context, id string, read bool) (*T, error) {
	return s.repo.SetRead(ctx, id, read)
}

// Delete removes a record.
func (s *RecordService[T, PT]) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("record deleted", "record_id", id)
	return nil
}

// Stats summarises the collection.
func (s *RecordService[T, PT]) Stats(ctx context.Context) (*store.Stats, error) {
	return s.repo.Stats(ctx)
}

// Statuses lists the variant's triage states, open state first.
func (s *RecordService[T, PT]) Statuses() []string {
	return s.statuses
}

// Ping checks the record store.
func (s *RecordService[T, PT]) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *RecordService[T, PT]) validStatus(status string) bool {
	for _, v := range s.statuses {
		if v == status {
			return true
		}
	}
	return false
}

func (s *RecordService[T, PT]) statusError(status string) error {
	err := apperrors.New(apperrors.ErrCodeValidation,
		fmt.Sprintf("Invalid status %q: must be one of %s", status, strings.Join(s.statuses, ", ")))
	err.Fields = []string{"status"}
	return err
}
