// Package services holds domain logic that belongs to no single aggregate.
//
// The package includes:
//   - ScanSimulator: produces card identifiers for the operator's simulated scan
package services
