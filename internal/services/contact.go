package services

import (
	"context"
	"log/slog"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/normalize"
	"rotorcharter/internal/store"
)

// ContactNotifier emails the company and the submitter about a contact.
type ContactNotifier interface {
	ContactReceived(ctx context.Context, rec *domain.ContactRecord) error
}

// ContactForwarder replicates a contact to the CRM.
type ContactForwarder interface {
	ForwardContact(ctx context.Context, rec *domain.ContactRecord) error
}

// ContactService handles contact form submissions and their triage.
type ContactService = RecordService[domain.ContactRecord, *domain.ContactRecord]

// NewContactService creates a new contact service
func NewContactService(
	repo store.Repository[domain.ContactRecord],
	n *normalize.Normalizer,
	notifier ContactNotifier,
	forwarder ContactForwarder,
	opts Options,
	log *slog.Logger,
) *ContactService {
	return &ContactService{
		kind:     "contact",
		thanks:   "Thank you for contacting us! We'll get back to you soon.",
		repo:     repo,
		validate: n.Contact,
		notify:   notifier.ContactReceived,
		forward:  forwarder.ForwardContact,
		statuses: domain.ContactStatuses,
		opts:     opts.withDefaults(),
		log:      logging.Component(log, "contact"),
	}
}
