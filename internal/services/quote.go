package services

import (
	"context"
	"log/slog"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/normalize"
	"rotorcharter/internal/store"
)

// QuoteNotifier emails the company and the submitter about a quote request.
type QuoteNotifier interface {
	QuoteReceived(ctx context.Context, rec *domain.QuoteRecord) error
}

// QuoteForwarder replicates a quote request to the CRM.
type QuoteForwarder interface {
	ForwardQuote(ctx context.Context, rec *domain.QuoteRecord) error
}

// QuoteService handles quote requests and their triage.
type QuoteService = RecordService[domain.QuoteRecord, *domain.QuoteRecord]

// NewQuoteService creates a new quote service
func NewQuoteService(
	repo store.Repository[domain.QuoteRecord],
	n *normalize.Normalizer,
	notifier QuoteNotifier,
	forwarder QuoteForwarder,
	opts Options,
	log *slog.Logger,
) *QuoteService {
	return &QuoteService{
		kind:     "quote",
		thanks:   "Thank you for your quote request! Our charter team will contact you shortly.",
		repo:     repo,
		validate: n.Quote,
		notify:   notifier.QuoteReceived,
		forward:  forwarder.ForwardQuote,
		statuses: domain.QuoteStatuses,
		opts:     opts.withDefaults(),
		log:      logging.Component(log, "quote"),
	}
}
