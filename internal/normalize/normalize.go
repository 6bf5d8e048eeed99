// Package normalize validates public intake payloads and converts them into
// storable records.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"rotorcharter/internal/domain"
	apperrors "rotorcharter/pkg/errors"
)

// Required payload fields per record variant, in report order.
var (
	ContactRequired = []string{"name", "email", "message", "service"}
	QuoteRequired   = []string{"serviceType", "firstName", "lastName", "email", "phone"}
)

// Payload is a decoded JSON submission body.
type Payload map[string]any

// String returns the field as text. Numbers and booleans are formatted, a
// missing or null field is empty.
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// First returns the first non-blank field among keys.
func (p Payload) First(keys ...string) string {
	for _, k := range keys {
		if s := p.String(k); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Bool returns a boolean field and whether it was present as a boolean.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// Normalizer turns payloads into records.
type Normalizer struct {
	// Region is the default ISO 3166 region used when parsing phone numbers.
	Region string
}

// New returns a Normalizer for the given phone region.
func New(region string) *Normalizer {
	if region == "" {
		region = "US"
	}
	return &Normalizer{Region: region}
}

type checker struct {
	missing []string
	invalid []string
}

func (c *checker) require(field, value string) {
	if value == "" {
		c.missing = append(c.missing, field)
	}
}

func (c *checker) reject(field string) {
	c.invalid = append(c.invalid, field)
}

func (c *checker) err() error {
	if e := apperrors.Validation(c.missing, c.invalid); e != nil {
		return e
	}
	return nil
}

// Service coerces a category to its canonical spelling or to "Other".
func Service(s string) string {
	if canonical, ok := domain.CanonicalService(Identifier(s)); ok {
		return canonical
	}
	return domain.ServiceOther
}

// Contact validates and normalizes a contact submission. Identity, status,
// read flag and timestamps are left for the store.
func (n *Normalizer) Contact(p Payload) (*domain.ContactRecord, error) {
	rec := &domain.ContactRecord{
		Name:    Identifier(p.String("name")),
		Email:   Email(p.String("email")),
		Phone:   Phone(p.String("phone"), n.Region),
		Company: Identifier(p.String("company")),
		Message: FreeText(p.String("message")),
		Date:    Identifier(p.First("date", "preferredDate")),
	}
	service := Identifier(p.String("service"))

	var c checker
	c.require("name", rec.Name)
	c.require("email", rec.Email)
	c.require("message", rec.Message)
	c.require("service", service)
	n.checkShared(&c, rec.Email, rec.Date, "date")

	passengers, ok := passengerCount(p.String("passengers"))
	if !ok {
		c.reject("passengers")
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	rec.Service = Service(service)
	rec.Passengers = passengers
	return rec, nil
}

// Quote validates and normalizes a quote request.
func (n *Normalizer) Quote(p Payload) (*domain.QuoteRecord, error) {
	rec := &domain.QuoteRecord{
		FirstName:       Identifier(p.String("firstName")),
		LastName:        Identifier(p.String("lastName")),
		Email:           Email(p.String("email")),
		Phone:           Phone(p.String("phone"), n.Region),
		Company:         Identifier(p.String("company")),
		PreferredDate:   Identifier(p.First("preferredDate", "date")),
		Duration:        Identifier(p.String("duration")),
		Origin:          Identifier(p.String("origin")),
		Destination:     Identifier(p.String("destination")),
		SpecialRequests: FreeText(p.First("specialRequests", "additionalInfo", "message")),
	}
	serviceType := Identifier(p.String("serviceType"))

	var c checker
	c.require("serviceType", serviceType)
	c.require("firstName", rec.FirstName)
	c.require("lastName", rec.LastName)
	c.require("email", rec.Email)
	c.require("phone", rec.Phone)
	n.checkShared(&c, rec.Email, rec.PreferredDate, "preferredDate")

	passengers, ok := passengerCount(p.String("passengers"))
	if !ok {
		c.reject("passengers")
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	rec.ServiceType = Service(serviceType)
	rec.Passengers = passengers
	return rec, nil
}

func (n *Normalizer) checkShared(c *checker, email, date, dateField string) {
	if email != "" && !ValidEmail(email) {
		c.reject("email")
	}
	if date != "" && !ValidDate(date) {
		c.reject(dateField)
	}
}

// passengerCount keeps the digits of raw. Blank input is zero.
func passengerCount(raw string) (int, bool) {
	// Fractional JSON numbers keep only their integer part.
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	digits := Digits(raw)
	if digits == "" {
		return 0, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
