package handlers

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pushp314/socialhub-backend/internal/models"
)

const MaxMessageLength = 8000

// Dangerous patterns for XSS prevention
var (
	scriptTagRegex = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	onEventRegex   = regexp.MustCompile(`(?i)\s+on\w+\s*=`)
)

// SanitizeMessageContent cleans and validates text content before it is
// persisted. Returns the sanitized content or an error.
func SanitizeMessageContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errors.New("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", errors.New("message exceeds maximum length")
	}

	content = scriptTagRegex.ReplaceAllString(content, "")
	content = onEventRegex.ReplaceAllString(content, " ")
	content = html.EscapeString(content)
	content = strings.TrimSpace(content)

	if content == "" {
		return "", errors.New("message cannot be empty after sanitization")
	}
	return content, nil
}

// ValidateMessageType checks if the message type is one we store.
func ValidateMessageType(msgType string) bool {
	switch msgType {
	case models.MessageTypeText, models.MessageTypeFile, models.MessageTypeImage,
		models.MessageTypeVideo, models.MessageTypeAudio:
		return true
	}
	return false
}
