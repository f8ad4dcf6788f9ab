// Package registry owns the table of live channels.
//
// A channel is one logical substream of commands with its own grouper. The
// registry hands out opaque handles, routes received bytes to the channel's
// grouper and removes the channel on disconnect. Handles are an index into a
// slot arena plus the slot's generation, so a handle that outlived its
// channel is rejected with domain.ErrInvalidHandle instead of reaching a
// channel that reused the slot.
//
// All operations hold one mutex from lookup through use and removal, which
// serializes groupers of different channels but makes concurrent disconnects
// of the same handle safe.
package registry
