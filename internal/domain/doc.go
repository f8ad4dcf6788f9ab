// Package domain contains the core domain entities and value objects for bulkd.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (network, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Pack]: A finalized, ordered batch of commands with the time it was opened
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
