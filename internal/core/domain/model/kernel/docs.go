// Package kernel holds the small value types shared by the card and order models:
// the UUID used as order identity and the Clock that urgency and stamps are read from.
package kernel
