package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxChannelIDLen = 32  // analysis_jobs.channel_id VARCHAR(32)
	MaxOwnerLen     = 128 // hashed before storage, bounded to keep requests sane
	AccessKeyLen    = 32  // analysis_jobs.access_key VARCHAR(32)
)

var (
	// channelIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
	channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// accessKeyRe matches access keys: exactly 32 lowercase hex characters.
	accessKeyRe = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID checks that a channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateAccessKey checks the access key format. Keys are issued by the
// submission endpoint as 32 hex characters; anything else is rejected before
// touching the database.
func ValidateAccessKey(key string) (string, string) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", "accessKey is required"
	}
	if !accessKeyRe.MatchString(key) {
		return "", "accessKey must be 32 hexadecimal characters"
	}
	return key, ""
}

// ValidateOwner checks the submitter identifier. It is hashed before storage
// so the format is loose, only presence and length are enforced.
func ValidateOwner(owner string) (string, string) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", "owner is required"
	}
	if len(owner) > MaxOwnerLen {
		return "", "owner must be at most 128 characters"
	}
	return owner, ""
}
