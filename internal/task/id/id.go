// Package id provides unique identifier generation for background tasks.
package id

import "github.com/google/uuid"

// Prefix starts every task ID.
const Prefix = "task-"

// Generate creates a new unique task ID.
// Format: task-<uuid>
// Example: task-9b2f6c1e-3f4a-4b8e-9a51-0c7d2e8f1a63
func Generate() string {
	return Prefix + uuid.NewString()
}
