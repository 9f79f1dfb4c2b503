package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for policy, log, or session IDs
func GenerateID() string {
	return uuid.New().String()
}

// GenerateLogID generates a unique consent log ID
func GenerateLogID() string {
	return "LOG-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
