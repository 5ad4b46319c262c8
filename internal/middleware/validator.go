package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Input validation for the analysis endpoints

const maxTextLen = 10000

// ValidateText checks the text field of an analysis request.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text content is required")
	}
	if utf8.RuneCountInString(text) > maxTextLen {
		return fmt.Errorf("text exceeds %d characters", maxTextLen)
	}
	return nil
}

// ValidateVideoURL checks the videoUrl field of an analysis request.
func ValidateVideoURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("video URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid video URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid video URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("video URL has no host")
	}
	return nil
}

// ValidateDays bounds the trends window
func ValidateDays(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 365 {
		return 365
	}
	return days
}
