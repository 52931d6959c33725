// Package pdi owns the PDI frame contract used between the command base
// and LCS accessory boards.
//
// Ownership boundary:
// - SOP/EOP framing and byte stuffing
// - additive checksum
// - board command and action discriminators
package pdi

import (
	"errors"
	"fmt"
)

// Framing bytes. Any body byte colliding with one of these is preceded
// by the stuff byte on the wire.
const (
	SOP   byte = 0xD1
	Stuff byte = 0xDE
	EOP   byte = 0xDF
)

var (
	ErrShortFrame       = errors.New("pdi: frame too short")
	ErrBadFraming       = errors.New("pdi: missing SOP or EOP")
	ErrChecksumMismatch = errors.New("pdi: checksum mismatch")
)

// Command discriminates the board family and direction of a frame.
type Command byte

const (
	CmdBase3Engine Command = 0x20
	CmdBase3Train  Command = 0x21
	CmdBase3Acc    Command = 0x22
	CmdBase3Base   Command = 0x23
	CmdBase3Route  Command = 0x24
	CmdBase3Switch Command = 0x25
	CmdPing        Command = 0x29

	CmdIrdaGet Command = 0x30
	CmdIrdaSet Command = 0x31
	CmdIrdaRx  Command = 0x32

	CmdSer2Get Command = 0x34
	CmdSer2Set Command = 0x35
	CmdSer2Rx  Command = 0x36

	CmdAsc2Get Command = 0x38
	CmdAsc2Set Command = 0x39
	CmdAsc2Rx  Command = 0x3A

	CmdBpc2Get Command = 0x3C
	CmdBpc2Set Command = 0x3D
	CmdBpc2Rx  Command = 0x3E

	CmdStm2Get Command = 0x40
	CmdStm2Set Command = 0x41
	CmdStm2Rx  Command = 0x42
)

// Board actions carried in the first payload byte.
const (
	ActionConfig   byte = 0x01
	ActionFire     byte = 0x02
	ActionData     byte = 0x04
	ActionIdentify byte = 0x07
)

// Frame is one unframed PDI message: command discriminator, board or
// entity id, and the remaining body (action plus payload).
type Frame struct {
	Command Command
	ID      byte
	Payload []byte
}

// Action returns the leading payload byte, zero if absent.
func (f Frame) Action() byte {
	if len(f.Payload) == 0 {
		return 0
	}
	return f.Payload[0]
}

// Checksum is 0xFF & (0 - sum of body bytes).
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}
	return -sum
}

func needsStuffing(b byte) bool {
	return b == SOP || b == Stuff || b == EOP
}

// Encode frames, checksums, and stuffs f for transmission.
func Encode(f Frame) []byte {
	body := make([]byte, 0, 2+len(f.Payload))
	body = append(body, byte(f.Command), f.ID)
	body = append(body, f.Payload...)
	cs := Checksum(body)

	out := make([]byte, 0, len(body)+4)
	out = append(out, SOP)
	for _, b := range append(body, cs) {
		if needsStuffing(b) {
			out = append(out, Stuff)
		}
		out = append(out, b)
	}
	return append(out, EOP)
}

// Decode strips framing and stuffing from one SOP..EOP span and verifies
// the trailing checksum.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < 5 {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(raw))
	}
	if raw[0] != SOP || raw[len(raw)-1] != EOP {
		return Frame{}, ErrBadFraming
	}

	// A stuff byte marks the next byte as literal. A stuff byte that is
	// itself marked is body data.
	stuffed := raw[1 : len(raw)-1]
	body := make([]byte, 0, len(stuffed))
	escaped := false
	for _, b := range stuffed {
		if b == Stuff && !escaped {
			escaped = true
			continue
		}
		body = append(body, b)
		escaped = false
	}

	if len(body) < 3 {
		return Frame{}, fmt.Errorf("%w: %d body bytes", ErrShortFrame, len(body))
	}
	cs := body[len(body)-1]
	body = body[:len(body)-1]
	if want := Checksum(body); cs != want {
		return Frame{}, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrChecksumMismatch, cs, want)
	}

	f := Frame{Command: Command(body[0]), ID: body[1]}
	if len(body) > 2 {
		f.Payload = append([]byte(nil), body[2:]...)
	}
	return f, nil
}
