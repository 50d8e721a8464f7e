// Package models defines the core domain models for splittie.
//
// # Models
//
//   - Account: a registered user with a unique, case-sensitive username
//   - Bill: a shared expense with a payer, totals and an ordered list of splitters
//   - Splitter: one participant's allocated portion of a bill (embedded in Bill)
//   - Item: a single priced line entry assigned to one splitter (embedded in Splitter)
//
// # Relationships
//
// A Bill exclusively owns its Splitters and Items; they have no lifecycle of
// their own and are replaced wholesale on every update.
//
// Account and Bill are related many-to-many through back-references: every
// Account keeps an index of the bills it pays for or splits (Account.Bills).
// The Bill record is authoritative. The index is denormalized and kept in step
// by the directory package, with a reconciliation pass as the repair path.
//
// IDs are strings (UUID format) rather than pointers to avoid circular
// references between the two entities.
package models
