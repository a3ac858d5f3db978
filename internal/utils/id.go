package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new opaque identifier for papers and jobs.
func GenerateID() string {
	return uuid.New().String()
}
