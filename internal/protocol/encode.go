package protocol

import "fmt"

// encode renders the request's wire bytes for the TMCC families.
func encode(r *Request) ([]byte, error) {
	switch r.spec.Family {
	case FamilyTMCC1:
		return encodeTMCC1(r)
	case FamilyTMCC2:
		return encodeTMCC2(r)
	case FamilyMulti:
		return encodeMulti(r)
	}
	return nil, fmt.Errorf("%w: family %s", ErrInvalidFrame, r.spec.Family)
}

func tmccWord(s *Spec, address uint8, data uint32, addrShift uint8) uint16 {
	if s.NoAddress {
		return s.Opcode
	}
	word := s.Opcode | uint16(address)<<addrShift
	if s.DataMap != nil {
		word |= s.DataMap[data]
	} else if s.DataBits > 0 {
		word |= uint16(data) & s.dataMask()
	}
	return word
}

func encodeTMCC1(r *Request) ([]byte, error) {
	word := tmccWord(r.spec, r.address, r.data, tmcc1AddrShift)
	if r.scope == ScopeTrain && r.spec.Scope == ScopeEngine {
		word = word&Tmcc1TrainPurifier | Tmcc1TrainModifier
	}
	return []byte{PrefixTMCC1, byte(word >> 8), byte(word)}, nil
}

func encodeTMCC2(r *Request) ([]byte, error) {
	var prefix byte
	switch r.scope {
	case ScopeEngine, ScopeSystem:
		prefix = PrefixTMCC2Engine
	case ScopeTrain:
		prefix = PrefixTMCC2Train
	case ScopeRoute:
		prefix = PrefixTMCC2Route
	default:
		return nil, fmt.Errorf("%w: %s on tmcc2", ErrInvalidScope, r.scope)
	}
	word := tmccWord(r.spec, r.address, r.data, tmcc2AddrShift)
	return []byte{prefix, byte(word >> 8), byte(word)}, nil
}

// encodeMulti renders the three-word parameter format. Each word repeats
// the address byte; the final word carries the checksum.
func encodeMulti(r *Request) ([]byte, error) {
	prefix := PrefixTMCC2Engine
	scopeBit := byte(0)
	if r.scope == ScopeTrain {
		prefix = PrefixTMCC2Train
		scopeBit = 1
	}
	ab := r.address<<1 | scopeBit
	out := []byte{
		prefix, ab, r.spec.Param,
		PrefixMulti, ab, byte(r.data),
		PrefixMulti, ab, 0,
	}
	out[8] = multiChecksum(out)
	return out, nil
}

// multiChecksum is the one's complement of the sum of the address bytes
// of words 1 and 2 plus the prefix byte of word 3, mod 256.
func multiChecksum(b []byte) byte {
	return ^(b[1] + b[4] + b[6])
}
