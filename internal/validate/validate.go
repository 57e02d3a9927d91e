package validate

import (
	"regexp"
	"slices"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ]{6,20}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// ID validates a simple resource identifier (item/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Password checks the length window bcrypt can handle.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 72
}

// Required trims s and reports whether anything is left.
func Required(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

func Area(s string, allowed []string) (string, bool) {
	return oneOf(s, allowed)
}

func PaymentMethod(s string, allowed []string) (string, bool) {
	return oneOf(s, allowed)
}

func oneOf(s string, allowed []string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, slices.Contains(allowed, s)
}
