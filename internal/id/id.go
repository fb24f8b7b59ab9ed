// Package id generates prefixed unique identifiers for jobs and other
// records ("job-V1StGXR8_Z5jdHi6B-myT"). NanoIDs are URL-safe and shorter
// than UUIDs, which keeps job URLs readable.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new prefixed identifier. It fails only when the system
// cannot provide secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is Generate for call sites where entropy exhaustion should
// crash the program.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("generate id: %v", err))
	}
	return id
}
