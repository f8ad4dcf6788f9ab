package batch

import "github.com/bft-labs/bulkd/internal/domain"

// Notifier receives every finalized pack.
// It is called synchronously from the batcher and must not block.
type Notifier func(pack domain.Pack)

// Batcher accumulates command lines until a pack is ready to be finalized.
// It decides pack boundaries and hands finalized packs to its Notifier.
type Batcher interface {
	// Push adds one command line to the open pack.
	Push(line string)

	// Submit adds a group of lines delivered together.
	// In dynamic mode the whole submission becomes one pack.
	Submit(lines []string)

	// Flush finalizes the open pack if it holds any commands.
	Flush()

	// HasPending returns true if there are commands waiting to be finalized.
	HasPending() bool
}
