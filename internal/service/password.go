package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 128
	specialChars   = "!@#$%^&*()_+-=[]{}|;:'\",.<>?/`~"
)

var commonPasswordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^12345`),
	regexp.MustCompile(`(?i)password`),
	regexp.MustCompile(`(?i)qwerty`),
	regexp.MustCompile(`(?i)abc123`),
	regexp.MustCompile(`(?i)letmein`),
	regexp.MustCompile(`(?i)admin`),
	regexp.MustCompile(`(?i)welcome`),
	regexp.MustCompile(`(?i)monkey`),
	regexp.MustCompile(`(?i)dragon`),
}

// ValidatePassword returns every strength rule the password breaks. An empty
// result means the password is acceptable.
func ValidatePassword(pw string) []string {
	var problems []string

	n := utf8.RuneCountInString(pw)
	if n < passwordMinLen {
		problems = append(problems, "password must be at least 8 characters")
	}
	if n > passwordMaxLen {
		problems = append(problems, "password must be at most 128 characters")
	}

	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "password needs an uppercase letter")
	}
	if !lower {
		problems = append(problems, "password needs a lowercase letter")
	}
	if !digit {
		problems = append(problems, "password needs a digit")
	}
	if !strings.ContainsAny(pw, specialChars) {
		problems = append(problems, "password needs a special character")
	}

	for _, p := range commonPasswordPatterns {
		if p.MatchString(pw) {
			problems = append(problems, "password uses a common pattern")
			break
		}
	}
	return problems
}
