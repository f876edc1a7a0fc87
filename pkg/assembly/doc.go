// Package assembly defines the furniture assembly schema and the run-time
// assembly state for Flatpack. The schema (Model) is immutable once built;
// State values are replaced wholesale by the pure transitions Move,
// ApplySnap and Reset.
package assembly
