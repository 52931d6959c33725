package protocol

import (
	"fmt"
	"sort"
)

// Decode parses one TMCC byte group (3-byte fixed or 9-byte multi-word).
// ErrUnknownCommand means a well-formed word matched no registered spec;
// ErrInvalidFrame means the bytes themselves are malformed.
func Decode(b []byte) (*Request, error) {
	switch len(b) {
	case 3:
		word := uint16(b[1])<<8 | uint16(b[2])
		switch b[0] {
		case PrefixTMCC1:
			return decodeTMCC1(word)
		case PrefixTMCC2Engine, PrefixTMCC2Train, PrefixTMCC2Route:
			return decodeTMCC2(b[0], word)
		}
		return nil, fmt.Errorf("%w: prefix 0x%02X", ErrInvalidFrame, b[0])
	case 9:
		return decodeMulti(b)
	}
	return nil, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(b))
}

func decodeTMCC1(word uint16) (*Request, error) {
	if spec, ok := specs.exact[FamilyTMCC1][word]; ok {
		return newRequest(spec, spec.Scope, BroadcastAddress, 0, nil)
	}

	isTrain := false
	if word&Tmcc1TrainModifier == Tmcc1TrainModifier {
		isTrain = true
		word &= Tmcc1TrainPurifier
	}

	spec, data, ok := matchWord(FamilyTMCC1, word, tmcc1AddrMask)
	if !ok {
		return nil, fmt.Errorf("%w: tmcc1 word 0x%04X", ErrUnknownCommand, word)
	}
	scope := spec.Scope
	if isTrain {
		if spec.Scope != ScopeEngine {
			return nil, fmt.Errorf("%w: train modifier on %s word", ErrInvalidFrame, spec.Scope)
		}
		scope = ScopeTrain
	}

	addr := uint8((word & tmcc1AddrMask) >> tmcc1AddrShift)
	req, err := newRequest(spec, scope, addr, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return req, nil
}

func decodeTMCC2(prefix byte, word uint16) (*Request, error) {
	var scope Scope
	switch prefix {
	case PrefixTMCC2Engine:
		scope = ScopeEngine
	case PrefixTMCC2Train:
		scope = ScopeTrain
	case PrefixTMCC2Route:
		scope = ScopeRoute
	}

	// The motive halt word is only meaningful on the engine/train prefixes.
	if prefix != PrefixTMCC2Route {
		if spec, ok := specs.exact[FamilyTMCC2][word]; ok {
			return newRequest(spec, spec.Scope, BroadcastAddress, 0, nil)
		}
	}

	spec, data, ok := matchWord(FamilyTMCC2, word, tmcc2AddrMask)
	if !ok {
		return nil, fmt.Errorf("%w: tmcc2 word 0x%04X", ErrUnknownCommand, word)
	}
	switch spec.Scope {
	case ScopeRoute:
		if scope != ScopeRoute {
			return nil, fmt.Errorf("%w: route word on prefix 0x%02X", ErrUnknownCommand, prefix)
		}
	case ScopeEngine:
		if scope == ScopeRoute {
			return nil, fmt.Errorf("%w: engine word on route prefix", ErrUnknownCommand)
		}
	}

	addr := uint8(word >> tmcc2AddrShift)
	req, err := newRequest(spec, scope, addr, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return req, nil
}

// matchWord resolves a word against the registered templates for one
// family. Fixed templates win, then explicit value maps, then data
// fields narrowest first so a fixed-range overlap never shadows.
func matchWord(fam Family, word uint16, addrMask uint16) (*Spec, uint32, bool) {
	template := word &^ addrMask
	if spec, ok := specs.fixed[fam][template]; ok {
		return spec, 0, true
	}

	for _, spec := range specs.mapped[fam] {
		low := word & spec.lowMask()
		if word&^addrMask&^spec.lowMask() != spec.Opcode&^spec.lowMask() {
			continue
		}
		if data, ok := spec.revMap[low]; ok {
			return spec, data, true
		}
	}

	byFam := specs.byBits[fam]
	widths := make([]int, 0, len(byFam))
	for bits := range byFam {
		widths = append(widths, int(bits))
	}
	sort.Ints(widths)
	for _, bits := range widths {
		mask := uint16(1)<<bits - 1
		spec, ok := byFam[uint8(bits)][template&^mask]
		if !ok {
			continue
		}
		data := uint32(word & mask)
		if data >= spec.DataMin && data <= spec.DataMax {
			return spec, data, true
		}
	}
	return nil, 0, false
}

func decodeMulti(b []byte) (*Request, error) {
	if b[3] != PrefixMulti || b[6] != PrefixMulti {
		return nil, fmt.Errorf("%w: multi-word prefixes 0x%02X 0x%02X", ErrInvalidFrame, b[3], b[6])
	}
	if b[1] != b[4] || b[1] != b[7] {
		return nil, fmt.Errorf("%w: multi-word address bytes disagree", ErrInvalidFrame)
	}
	if got, want := b[8], multiChecksum(b); got != want {
		return nil, fmt.Errorf("%w: multi-word checksum 0x%02X want 0x%02X", ErrInvalidFrame, got, want)
	}

	scope := ScopeEngine
	if b[1]&1 == 1 {
		scope = ScopeTrain
	}
	spec, ok := specs.multi[b[2]]
	if !ok {
		return nil, fmt.Errorf("%w: parameter index 0x%02X", ErrUnknownCommand, b[2])
	}

	addr := b[1] >> 1
	req, err := newRequest(spec, scope, addr, uint32(b[5]), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return req, nil
}
