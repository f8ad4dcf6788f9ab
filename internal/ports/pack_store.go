package ports

import "github.com/bft-labs/bulkd/internal/domain"

// PackStore persists finalized packs for a file worker.
// Implementations must be safe for concurrent use by several workers.
type PackStore interface {
	// Store writes one pack. workerID and seq identify the writer and its
	// per-worker sequence number; together with the pack's open time they
	// make the destination name unique.
	// Returns the name of the written file.
	Store(pack domain.Pack, workerID, seq int) (string, error)
}
