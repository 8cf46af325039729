// Package errs provides the typed errors shared by the e-kanban service.
//
// Every type follows the same shape:
//   - a sentinel (ErrValueIsRequired, ErrValueIsInvalid, ErrObjectNotFound)
//   - a struct carrying the offending parameter and an optional cause
//   - New...Error and New...ErrorWithCause constructors
//   - Unwrap returning the sentinel, so errors.Is works across layers
package errs
