// Package ledger records the verdicts of a run in an in-memory SQLite
// database.
//
// The ledger lives only as long as one run. The driver's verdicts are
// written to it and the report is read back from it, so counting and
// ordering are done in SQL rather than by hand.
//
// # Ordering
//
// Entries are returned in the order they were recorded (seq ASC), which the
// driver keeps equal to discovery order.
//
// # Database Configuration
//
//   - foreign_keys=ON, so verdicts cannot refer to a run that was never begun
//   - a single connection, so every query sees the same in-memory database
package ledger
