package domain

import (
	"strings"
	"time"
)

// Record is implemented by pointers to the intake record variants.
type Record interface {
	TableName() string
	RecordID() string
	Created() time.Time
	Stamp(id string, createdAt time.Time)
	Touch(at time.Time)
	Triage() (status string, read bool)
	SetTriage(status string, read bool)
}

// ServiceOther is the fallback for unrecognised service categories.
const ServiceOther = "Other"

// ServiceTypes lists the known service categories in display order.
var ServiceTypes = []string{
	"Scenic Tours",
	"Charter Flights",
	"Aerial Photography",
	"Corporate Travel",
	"Special Events",
	"Medical Transport",
	"Cargo & Utility",
	ServiceOther,
}

// CanonicalService returns the canonical spelling of a known service category
// and whether the input matched one.
func CanonicalService(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, known := range ServiceTypes {
		if strings.EqualFold(s, known) {
			return known, true
		}
	}
	return "", false
}

// Contact triage states.
const (
	ContactStatusNew        = "new"
	ContactStatusContacted  = "contacted"
	ContactStatusInProgress = "in-progress"
	ContactStatusResolved   = "resolved"
)

// Quote triage states.
const (
	QuoteStatusPending    = "pending"
	QuoteStatusInProgress = "in-progress"
	QuoteStatusQuoted     = "quoted"
	QuoteStatusAccepted   = "accepted"
	QuoteStatusRejected   = "rejected"
	QuoteStatusCompleted  = "completed"
)

// ContactStatuses is the contact triage state set, open state first.
var ContactStatuses = []string{
	ContactStatusNew,
	ContactStatusContacted,
	ContactStatusInProgress,
	ContactStatusResolved,
}

// QuoteStatuses is the quote triage state set, open state first.
var QuoteStatuses = []string{
	QuoteStatusPending,
	QuoteStatusInProgress,
	QuoteStatusQuoted,
	QuoteStatusAccepted,
	QuoteStatusRejected,
	QuoteStatusCompleted,
}

// ValidContactStatus reports whether s is a contact triage state.
func ValidContactStatus(s string) bool {
	return contains(ContactStatuses, s)
}

// ValidQuoteStatus reports whether s is a quote triage state.
func ValidQuoteStatus(s string) bool {
	return contains(QuoteStatuses, s)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
