package commands

import "errors"

var (
	// ErrCardNotFound is returned when a scanned identifier matches no card. Nothing is created.
	ErrCardNotFound = errors.New("card not found")

	// ErrOrderCreationFailed is returned when the store could not create the order.
	// Retrying creates a new, independent order.
	ErrOrderCreationFailed = errors.New("order creation failed")

	// ErrOrderNotFound is returned when a status advance names an unknown order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrStatusUpdateFailed is returned when the store could not apply a valid transition.
	ErrStatusUpdateFailed = errors.New("order status update failed")
)
