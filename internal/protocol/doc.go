// Package protocol owns the TMCC wire contract.
//
// Ownership boundary:
// - command spec registry (kind -> bit layout)
// - request construction and data/address validation
// - TMCC1/TMCC2 fixed-word and multi-word encode/decode
//
// PDI framing lives in protocol/pdi; this package only defines the
// logical kinds PDI frames bridge into.
package protocol
