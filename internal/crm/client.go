// Package crm forwards intake records to Salesforce Web-to-Lead.
package crm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rotorcharter/internal/config"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/normalize"
	apperrors "rotorcharter/pkg/errors"
)

// Lead sources reported to the CRM.
const (
	SourceContact = "Website Contact"
	SourceQuote   = "Website Quote"
)

// Urgency values for the contact urgency field.
const (
	UrgencyHigh   = "High"
	UrgencyNormal = "Normal"
)

// urgentWithin is how close a preferred date must be to mark a lead urgent.
const urgentWithin = 3 * 24 * time.Hour

// Client posts leads to the Web-to-Lead endpoint.
type Client struct {
	cfg  *config.CRMConfig
	http *http.Client
	log  *slog.Logger
	now  func() time.Time
}

// NewClient creates a Web-to-Lead client.
func NewClient(cfg *config.CRMConfig, log *slog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
		now:  time.Now,
	}
}

// IsEnabled reports whether leads are actually posted.
func (c *Client) IsEnabled() bool {
	return c.cfg.Enabled
}

// ForwardContact posts a contact record as a lead.
func (c *Client) ForwardContact(ctx context.Context, rec *domain.ContactRecord) error {
	return c.post(ctx, rec.ID, c.ContactLead(rec))
}

// ForwardQuote posts a quote request as a lead.
func (c *Client) ForwardQuote(ctx context.Context, rec *domain.QuoteRecord) error {
	return c.post(ctx, rec.ID, c.QuoteLead(rec))
}

// ContactLead maps a contact record onto Web-to-Lead form fields.
func (c *Client) ContactLead(rec *domain.ContactRecord) url.Values {
	first, last := SplitName(rec.Name)
	form := c.base(first, last, rec.Email, rec.Phone, rec.Company, rec.Message, SourceContact)
	c.custom(form, c.cfg.Fields.ContactService, rec.Service)
	c.custom(form, c.cfg.Fields.ContactUrgency, Urgency(rec.Date, c.now()))
	return form
}

// QuoteLead maps a quote request onto Web-to-Lead form fields.
func (c *Client) QuoteLead(rec *domain.QuoteRecord) url.Values {
	form := c.base(rec.FirstName, rec.LastName, rec.Email, rec.Phone, rec.Company, quoteDescription(rec), SourceQuote)
	c.custom(form, c.cfg.Fields.QuoteService, rec.ServiceType)
	c.custom(form, c.cfg.Fields.QuoteDate, normalize.CRMDate(rec.PreferredDate))
	if rec.Passengers > 0 {
		c.custom(form, c.cfg.Fields.QuotePassengers, strconv.Itoa(rec.Passengers))
	}
	return form
}

func (c *Client) base(first, last, email, phone, company, description, source string) url.Values {
	if company == "" {
		company = c.cfg.DefaultCompany
	}
	form := url.Values{}
	form.Set("oid", c.cfg.OrgID)
	form.Set("retURL", c.cfg.ReturnURL)
	form.Set("first_name", first)
	form.Set("last_name", last)
	form.Set("email", email)
	form.Set("phone", phone)
	form.Set("company", company)
	form.Set("description", description)
	form.Set("lead_source", source)
	return form
}

// custom sets an opaque custom field when both the id and value are known.
func (c *Client) custom(form url.Values, id, value string) {
	if id == "" || value == "" {
		return
	}
	form.Set(id, value)
}

func (c *Client) post(ctx context.Context, recordID string, form url.Values) error {
	if !c.cfg.Enabled {
		c.log.Info("crm forwarding disabled, lead not sent", "record_id", recordID, "lead_source", form.Get("lead_source"))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeForwarding, "failed to build lead request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeForwarding, "failed to post lead", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.New(apperrors.ErrCodeForwarding, fmt.Sprintf("lead endpoint returned %d", resp.StatusCode))
	}

	c.log.Info("lead forwarded", "record_id", recordID, "lead_source", form.Get("lead_source"))
	return nil
}

// SplitName splits a full name at the last space. A single word becomes the
// last name, which Web-to-Lead requires.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:i]), name[i+1:]
}

// Urgency is High when date (YYYY-MM-DD) falls within three days of today,
// Normal otherwise, including when date is empty or unparseable.
func Urgency(date string, today time.Time) string {
	d, err := time.ParseInLocation("2006-01-02", date, today.Location())
	if err != nil {
		return UrgencyNormal
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if diff := d.Sub(start); diff >= 0 && diff <= urgentWithin {
		return UrgencyHigh
	}
	return UrgencyNormal
}

func quoteDescription(rec *domain.QuoteRecord) string {
	var lines []string
	if rec.SpecialRequests != "" {
		lines = append(lines, rec.SpecialRequests)
	}
	switch {
	case rec.Origin != "" && rec.Destination != "":
		lines = append(lines, "Route: "+rec.Origin+" to "+rec.Destination)
	case rec.Origin != "":
		lines = append(lines, "Origin: "+rec.Origin)
	case rec.Destination != "":
		lines = append(lines, "Destination: "+rec.Destination)
	}
	if rec.Duration != "" {
		lines = append(lines, "Duration: "+rec.Duration)
	}
	return strings.Join(lines, "\n")
}
