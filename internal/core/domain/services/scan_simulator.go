package services

import (
	"fmt"
	"math/rand/v2"
)

// SimulatedCardRange bounds the numeric part of simulated identifiers: MAT-000 to MAT-099.
const SimulatedCardRange = 100

// ScanSimulator stands in for a barcode reader on terminals without one.
// Simulated identifiers may name cards that are not registered; the intake
// flow reports those as unknown cards.
//
// Example usage:
//
//	sim := NewScanSimulator(nil)
//	cmd, _ := commands.NewCreateOrderCommand(sim.Next())
type ScanSimulator struct {
	intn func(n int) int
}

// NewScanSimulator uses r as its source, or the global generator when r is nil.
func NewScanSimulator(r *rand.Rand) ScanSimulator {
	if r == nil {
		return ScanSimulator{intn: rand.IntN}
	}
	return ScanSimulator{intn: r.IntN}
}

// Next returns an identifier of the form MAT-NNN.
func (s ScanSimulator) Next() string {
	return SimulatedCardID(s.intn(SimulatedCardRange))
}

// SimulatedCardID formats n as a zero-padded card identifier.
func SimulatedCardID(n int) string {
	return fmt.Sprintf("MAT-%03d", n)
}
