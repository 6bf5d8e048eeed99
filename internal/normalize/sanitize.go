package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

const (
	isoDate = "2006-01-02"
	crmDate = "01/02/2006"
)

var (
	markup         = strings.NewReplacer("<", "", ">", "")
	emailPattern   = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)
	canonicalPhone = regexp.MustCompile(`^[0-9]{3}-[0-9]+$`)
)

// Identifier cleans a short single-line field such as a name or company.
func Identifier(s string) string {
	return strings.TrimSpace(markup.Replace(s))
}

// FreeText cleans a message body. Inner whitespace and line breaks are kept.
func FreeText(s string) string {
	return strings.TrimSpace(markup.Replace(s))
}

// Email keeps only characters valid in an address and lowercases the result.
func Email(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if isEmailRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isEmailRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(".!#$%&'*+/=?^_`{|}~@-", r)
}

// ValidEmail reports whether an already sanitized address looks deliverable.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Digits drops everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone converts a raw phone number into the stored AAA-RRRRRRR form. A
// country calling code is dropped when the number parses for region.
// Already canonical input is returned unchanged.
func Phone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if canonicalPhone.MatchString(raw) {
		return raw
	}
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	if num, err := phonenumbers.Parse(raw, region); err == nil && phonenumbers.IsPossibleNumber(num) {
		if nsn := phonenumbers.GetNationalSignificantNumber(num); nsn != "" {
			digits = nsn
		}
	}
	if len(digits) <= 3 {
		return digits
	}
	return digits[:3] + "-" + digits[3:]
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

// CRMDate renders a YYYY-MM-DD date as MM/DD/YYYY. Other input is returned as is.
func CRMDate(s string) string {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return s
	}
	return t.Format(crmDate)
}
