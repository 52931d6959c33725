// Package stream owns resynchronizing frame assembly.
//
// Ownership boundary:
// - cursor buffer over the raw inbound byte stream
// - TMCC fixed/multi-word framing state machine
// - PDI SOP/EOP framing state machine
//
// Each assembler is a dedicated worker fed byte chunks over a channel;
// decode failures are logged and dropped, the stream resynchronizes.
package stream
