// Package validation holds the stateless checks applied to payment instruments
// before a payment record is created.
package validation

import (
	"regexp"
	"strings"
	"time"
)

type Network string

const (
	NetworkVisa       Network = "visa"
	NetworkMastercard Network = "mastercard"
	NetworkAmex       Network = "amex"
	NetworkRuPay      Network = "rupay"
	NetworkUnknown    Network = "unknown"
)

var (
	vpaLocal  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	vpaHandle = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
)

// ValidateVPA accepts addresses of the form local@handle.
func ValidateVPA(vpa string) bool {
	if strings.Count(vpa, "@") != 1 {
		return false
	}
	local, handle, _ := strings.Cut(vpa, "@")
	if local == "" || handle == "" {
		return false
	}
	return vpaLocal.MatchString(local) && vpaHandle.MatchString(handle)
}

// NormalizeCardNumber strips the separators people type into card fields.
func NormalizeCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LuhnCheck runs the mod-10 checksum over a digit string.
func LuhnCheck(number string) bool {
	if !isDigits(number) {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// DetectCardNetwork classifies a card number by prefix and length.
func DetectCardNetwork(number string) Network {
	if !isDigits(number) {
		return NetworkUnknown
	}
	n := len(number)
	switch {
	case number[0] == '4' && (n == 13 || n == 16 || n == 19):
		return NetworkVisa
	case (prefixBetween(number, 2, 51, 55) || prefixBetween(number, 4, 2221, 2720)) && n == 16:
		return NetworkMastercard
	case (strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37")) && n == 15:
		return NetworkAmex
	case isRuPayPrefix(number) && n == 16:
		return NetworkRuPay
	}
	return NetworkUnknown
}

// isRuPayPrefix matches RuPay-only ranges. Ranges shared with Discover
// (6011, 644-649, 65 outside 6521-6522) and JCB (3528-3589) are left unknown.
func isRuPayPrefix(number string) bool {
	switch {
	case strings.HasPrefix(number, "60"):
		return !strings.HasPrefix(number, "6011")
	case prefixBetween(number, 4, 6521, 6522):
		return true
	}
	for _, p := range []string{"81", "82", "508"} {
		if strings.HasPrefix(number, p) {
			return true
		}
	}
	return false
}

func prefixBetween(number string, width, lo, hi int) bool {
	if len(number) < width {
		return false
	}
	v := 0
	for i := 0; i < width; i++ {
		v = v*10 + int(number[i]-'0')
	}
	return v >= lo && v <= hi
}

// ValidateExpiry reports whether the card is still valid this month or later.
func ValidateExpiry(month, year int) bool {
	return ValidateExpiryAt(month, year, time.Now())
}

// ValidateExpiryAt is ValidateExpiry against an explicit reference time.
// Two-digit years are read as 20YY.
func ValidateExpiryAt(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year >= 0 && year < 100 {
		year += 2000
	}
	curYear, curMonth := now.Year(), int(now.Month())
	if year != curYear {
		return year > curYear
	}
	return month >= curMonth
}
