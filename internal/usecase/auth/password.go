package auth

import (
	"strings"
	"unicode"
)

const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "abc12345": {},
	"letmein1": {}, "trustno1": {}, "superman": {}, "starwars": {}, "passw0rd": {},
	"11111111": {}, "00000000": {}, "admin123": {}, "changeme": {}, "whatever": {},
}

// PasswordProblems returns the strength rules pw breaks, given the other
// values the user submitted alongside it.
func PasswordProblems(pw, username, email string) []string {
	var out []string

	if len([]rune(pw)) < MinPasswordLength {
		out = append(out, "This password is too short. It must contain at least 8 characters.")
	}
	if tooSimilar(pw, username, email) {
		out = append(out, "The password is too similar to the username.")
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		out = append(out, "This password is too common.")
	}
	if pw != "" && strings.IndexFunc(pw, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		out = append(out, "This password is entirely numeric.")
	}
	return out
}

func tooSimilar(pw, username, email string) bool {
	p := strings.ToLower(pw)
	if p == "" {
		return false
	}
	attrs := []string{strings.ToLower(username)}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok {
		attrs = append(attrs, local)
	}
	for _, a := range attrs {
		if len(a) < 3 {
			continue
		}
		if p == a || strings.Contains(p, a) || strings.Contains(a, p) {
			return true
		}
	}
	return false
}
