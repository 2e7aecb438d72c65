// Package id provides unique ID generation utilities for docqa.
//
// Chunk records stored in the vector collection are keyed by UUID v4,
// so re-ingesting identical content never collides with earlier records.
//
// Usage:
//
//	chunkID := id.NewUUID() // e.g., "550e8400-e29b-41d4-a716-446655440000"
package id

import (
	"github.com/google/uuid"
)

// Generator defines the interface for ID generators.
type Generator interface {
	// Generate creates a new unique ID.
	Generate() string

	// GenerateN creates n unique IDs.
	GenerateN(n int) []string
}

// UUIDGenerator generates UUID v4 identifiers.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUID v4 generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate creates a new UUID v4 string.
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// GenerateN creates n UUID v4 strings.
func (g *UUIDGenerator) GenerateN(n int) []string {
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.NewString()
	}
	return ids
}

var defaultUUID Generator = NewUUIDGenerator()

// NewUUID generates a new UUID v4 string using the default generator.
func NewUUID() string {
	return defaultUUID.Generate()
}

// IsValidUUID checks if a string is a valid UUID format.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
