package util

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,6}$`)

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailRegex.MatchString(s)
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
