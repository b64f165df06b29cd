package api

import (
	"regexp"
	"unicode/utf8"
)

// maxNameLen is the maximum length for name fields.
const maxNameLen = 200

// maxQuestionLen is the maximum length for a campaign question.
const maxQuestionLen = 1000

// maxEmailLen is the maximum length for email addresses (RFC 5321).
const maxEmailLen = 254

// emailRe is a basic email format regex. Validates structure only.
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// mobileRe validates phone numbers: optional +, then 7-15 digits.
var mobileRe = regexp.MustCompile(`^\+?\d{7,15}$`)

// panRe validates an Indian PAN: five letters, four digits, one letter.
var panRe = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)

// validateRequiredStringLen checks that a string is non-empty and does
// not exceed maxLen characters. Returns an error message naming the
// field, or empty string if OK.
func validateRequiredStringLen(field, value string, maxLen int) string {
	if value == "" {
		return "Missing required field: " + field
	}
	if utf8.RuneCountInString(value) > maxLen {
		return field + " exceeds maximum length"
	}
	return ""
}

// validateEmail checks that a required field is a valid-looking email.
func validateEmail(field, value string) string {
	if value == "" {
		return "Missing required field: " + field
	}
	if len(value) > maxEmailLen {
		return field + " exceeds maximum length"
	}
	if !emailRe.MatchString(value) {
		return field + " is not a valid email address"
	}
	return ""
}

// validateMobile checks that a required field is a plausible phone number.
func validateMobile(field, value string) string {
	if value == "" {
		return "Missing required field: " + field
	}
	if !mobileRe.MatchString(value) {
		return field + " is not a valid phone number"
	}
	return ""
}

// validatePAN checks the PAN format of a KYC submission.
func validatePAN(field, value string) string {
	if value == "" {
		return "Missing required field: " + field
	}
	if !panRe.MatchString(value) {
		return field + " is not a valid PAN"
	}
	return ""
}
