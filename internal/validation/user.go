// Package validation holds input validation rules shared by handlers.
package validation

import (
	"errors"
	"regexp"
	"strings"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 24
	maxCaptionLen  = 280
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	addressRe  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// ValidateUsername enforces length and character rules for usernames.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > maxUsernameLen {
		return errors.New("username must be at most 24 characters")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits and underscores")
	}
	return nil
}

// ValidateAddress checks the wallet address shape (0x + 40 hex chars).
func ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return errors.New("address is required")
	}
	if !addressRe.MatchString(address) {
		return errors.New("address must be a 0x-prefixed 40-character hex string")
	}
	return nil
}

// ValidateCaption bounds the post caption length.
func ValidateCaption(caption string) error {
	if strings.TrimSpace(caption) == "" {
		return errors.New("caption is required")
	}
	if len(caption) > maxCaptionLen {
		return errors.New("caption must be at most 280 characters")
	}
	return nil
}
