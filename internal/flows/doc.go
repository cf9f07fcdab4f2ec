// Package flows contains the credential and rotation state-machine logic,
// expressed as pure functions over explicit dependency structs.
//
// Each Run* function receives everything it needs — stores, codecs, clocks,
// sentinel errors — through its deps struct, so the flows compile without any
// root-package import and are testable with plain fakes. The root engine owns
// wiring, error mapping, metrics, and audit; nothing in this package touches
// those concerns beyond reporting a failure kind.
package flows
