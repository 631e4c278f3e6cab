// Package storage defines the narrow external collaborators the pipeline
// depends on: an object store for input/output payloads and a durable
// dead-letter store. In-memory implementations back tests; S3 backs
// production.
package storage

import (
	"context"

	"github.com/cd3331/aws-flight-data-pipeline-sub001/pkg/models"
)

// ObjectStore is the only way the pipeline touches payload storage.
type ObjectStore interface {
	// Read resolves a reference to its raw bytes.
	Read(ctx context.Context, reference string) ([]byte, error)
	// Write stores data under the reference, overwriting any prior value.
	Write(ctx context.Context, reference string, data []byte) error
}

// DeadLetterStore durably holds failed units of work for later reprocessing.
type DeadLetterStore interface {
	// Enqueue stores a new error record.
	Enqueue(ctx context.Context, rec models.ErrorRecord) error
	// Dequeue returns up to max stored records without removing them.
	Dequeue(ctx context.Context, max int) ([]models.ErrorRecord, error)
	// Delete removes a record after successful reprocessing.
	Delete(ctx context.Context, id string) error
	// Update rewrites a record in place after a failed reprocess attempt.
	Update(ctx context.Context, rec models.ErrorRecord) error
}
