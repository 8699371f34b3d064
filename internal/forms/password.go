package forms

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

// A short list of the passwords seen most often in breach dumps.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "11111111": {},
	"qwerty123": {}, "qwertyuiop": {}, "1q2w3e4r": {}, "abc12345": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "welcome1": {}, "letmein1": {}, "admin123": {},
	"trustno1": {}, "dragon12": {}, "monkey12": {}, "superman": {},
}

// ValidatePassword applies the account password policy and returns every rule the password breaks.
func ValidatePassword(password, username string) []string {
	var problems []string

	if tooSimilar(password, username) {
		problems = append(problems, "The password is too similar to the username.")
	}
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if _, common := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; common {
		problems = append(problems, "This password is too common.")
	}
	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	return problems
}

// maxSimilarity is the share of characters a password may have in common with
// the username (or any part of it) before it is rejected.
const maxSimilarity = 0.7

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

func tooSimilar(password, username string) bool {
	p := []rune(strings.ToLower(password))
	u := strings.ToLower(strings.TrimSpace(username))
	if u == "" || len(p) == 0 {
		return false
	}

	parts := append(nonWord.Split(u, -1), u)
	for _, part := range parts {
		v := []rune(part)
		if len(v) == 0 {
			continue
		}
		// A short username inside a much longer password does not make it guessable.
		if len(p) >= 10*len(v) && float64(len(v)) < maxSimilarity/2*float64(len(p)) {
			continue
		}
		if sharedRatio(p, v) >= maxSimilarity {
			return true
		}
	}
	return false
}

// sharedRatio is 2*M/T where M counts the characters the two strings share
// regardless of position and T is their combined length.
func sharedRatio(a, b []rune) float64 {
	counts := make(map[rune]int, len(b))
	for _, r := range b {
		counts[r]++
	}
	matches := 0
	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(len(a)+len(b))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
