// Package notify sends the company alert and submitter confirmation emails
// for new intake records.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"rotorcharter/internal/config"
	"rotorcharter/internal/domain"
	apperrors "rotorcharter/pkg/errors"
)

// Notifier sends both emails for a record. The two sends are independent:
// one failing does not stop the other.
type Notifier struct {
	sender    Sender
	recipient string
	company   string
	log       *slog.Logger
}

// NewNotifier creates a notifier delivering alerts to cfg.Recipient.
func NewNotifier(sender Sender, cfg *config.NotifyConfig, log *slog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		recipient: cfg.Recipient,
		company:   cfg.CompanyName,
		log:       log,
	}
}

// ContactReceived notifies the company and confirms receipt to the submitter.
func (n *Notifier) ContactReceived(ctx context.Context, rec *domain.ContactRecord) error {
	details := []field{
		{"Name", rec.Name},
		{"Email", rec.Email},
		{"Phone", rec.Phone},
		{"Company", rec.Company},
		{"Service", rec.Service},
		{"Preferred date", rec.Date},
		{"Passengers", count(rec.Passengers)},
		{"Reference", rec.ID},
	}

	alert := mailData{
		Company:   n.company,
		Heading:   "New contact inquiry",
		Intro:     fmt.Sprintf("%s sent a message through the website.", rec.Name),
		Fields:    details,
		Message:   rec.Message,
		Signature: "Received " + rec.CreatedAt.Format("Jan 2, 2006 15:04 MST"),
	}
	confirmation := mailData{
		Company:  n.company,
		Greeting: "Aloha " + rec.Name + ",",
		Heading:  "We received your message",
		Intro:    "Thank you for contacting us. A member of our team will get back to you shortly. Here is a copy of what you sent:",
		Fields: []field{
			{"Service", rec.Service},
			{"Reference", rec.ID},
		},
		Message:   rec.Message,
		Signature: "The " + n.company + " Team",
	}

	return n.deliver(ctx, rec.ID,
		outbound{to: n.recipient, replyTo: rec.Email, subject: "New contact inquiry: " + rec.Service, data: alert},
		outbound{to: rec.Email, subject: "Thank you for contacting " + n.company, data: confirmation},
	)
}

// QuoteReceived notifies the company and confirms receipt to the submitter.
func (n *Notifier) QuoteReceived(ctx context.Context, rec *domain.QuoteRecord) error {
	details := []field{
		{"Name", rec.FullName()},
		{"Email", rec.Email},
		{"Phone", rec.Phone},
		{"Company", rec.Company},
		{"Service", rec.ServiceType},
		{"Preferred date", rec.PreferredDate},
		{"Passengers", count(rec.Passengers)},
		{"Duration", rec.Duration},
		{"Origin", rec.Origin},
		{"Destination", rec.Destination},
		{"Reference", rec.ID},
	}

	alert := mailData{
		Company:   n.company,
		Heading:   "New quote request",
		Intro:     fmt.Sprintf("%s requested a quote for %s.", rec.FullName(), rec.ServiceType),
		Fields:    details,
		Message:   rec.SpecialRequests,
		Signature: "Received " + rec.CreatedAt.Format("Jan 2, 2006 15:04 MST"),
	}
	confirmation := mailData{
		Company:  n.company,
		Greeting: "Aloha " + rec.FirstName + ",",
		Heading:  "Your quote request is in",
		Intro:    "Thank you for your request. Our charter team will prepare a quote and contact you shortly. Your request details:",
		Fields: []field{
			{"Service", rec.ServiceType},
			{"Preferred date", rec.PreferredDate},
			{"Passengers", count(rec.Passengers)},
			{"Reference", rec.ID},
		},
		Message:   rec.SpecialRequests,
		Signature: "The " + n.company + " Team",
	}

	return n.deliver(ctx, rec.ID,
		outbound{to: n.recipient, replyTo: rec.Email, subject: "New quote request: " + rec.ServiceType, data: alert},
		outbound{to: rec.Email, subject: "Your " + n.company + " quote request", data: confirmation},
	)
}

type outbound struct {
	to      string
	replyTo string
	subject string
	data    mailData
}

func (n *Notifier) deliver(ctx context.Context, recordID string, msgs ...outbound) error {
	errs := make([]error, len(msgs))

	var g errgroup.Group
	for i, o := range msgs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					n.log.Error("email send panicked", "record_id", recordID, "to", o.to, "panic", r)
					errs[i] = fmt.Errorf("%s: panic: %v", o.to, r)
				}
			}()
			htmlBody, textBody, err := render(o.data)
			if err == nil {
				err = n.sender.Send(ctx, Message{
					To:       o.to,
					ReplyTo:  o.replyTo,
					Subject:  o.subject,
					HTMLBody: htmlBody,
					TextBody: textBody,
				})
			}
			if err != nil {
				n.log.Warn("email send failed", "record_id", recordID, "to", o.to, "error", err)
				errs[i] = fmt.Errorf("%s: %w", o.to, err)
				return nil
			}
			n.log.Info("email sent", "record_id", recordID, "to", o.to)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNotification, "failed to send notification email", err)
	}
	return nil
}

func count(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
