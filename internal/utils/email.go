package utils

import (
	"net/mail"
	"strings"
)

// IsEmail reports whether s is a bare address of the form local@domain.tld.
// Display names ("Alice <a@x.com>"), whitespace and dotless domains are
// rejected.
func IsEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	if strings.Contains(domain, "..") || strings.HasPrefix(domain, "-") {
		return false
	}
	// top-level domain must be at least two letters
	return len(domain)-dot-1 >= 2
}
