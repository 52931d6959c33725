package protocol

import "fmt"

// TMCC1 16-bit word layout: bits 14-15 carry the scope marker, bits 7-13
// the address, bits 0-6 the opcode/data field. Train commands are the
// engine word with the marker stripped and the train modifier OR'd in.
const (
	tmcc1AddrShift       = 7
	tmcc1AddrMask uint16 = 0x3F80
	tmcc1LowMask  uint16 = 0x007F

	Tmcc1MarkerEngine    uint16 = 0x0000
	Tmcc1MarkerSwitch    uint16 = 0x4000
	Tmcc1MarkerAccessory uint16 = 0x8000

	Tmcc1TrainPurifier uint16 = 0x3FFF
	Tmcc1TrainModifier uint16 = 0xC000

	// The halt word carries no address; every receiver obeys it.
	Tmcc1HaltWord uint16 = 0xFFFF
)

// TMCC2 16-bit word layout: address above bit 9, opcode/data in the low
// 9 bits. The prefix byte selects engine/train/route scope.
const (
	tmcc2AddrShift       = 9
	tmcc2AddrMask uint16 = 0xFE00
	tmcc2LowMask  uint16 = 0x01FF
)

// Spec is the immutable description of one command kind. Opcode holds the
// full word template with the address and data fields zeroed; for TMCC1 it
// includes the scope marker bits.
type Spec struct {
	Kind   Kind
	Family Family
	Scope  Scope
	Opcode uint16

	// DataBits > 0 means the low DataBits bits of the word carry data in
	// [DataMin, DataMax]. DataMap instead maps logical data values to
	// explicit wire bits in the low field; the two are exclusive.
	DataBits uint8
	DataMin  uint32
	DataMax  uint32
	DataMap  map[uint32]uint16

	// Param is the parameter index for FamilyMulti specs.
	Param uint8

	// NoAddress marks system-wide words such as halt.
	NoAddress bool

	revMap map[uint16]uint32
}

func (s *Spec) dataMask() uint16 {
	if s.DataBits == 0 {
		return 0
	}
	return (1 << s.DataBits) - 1
}

func (s *Spec) lowMask() uint16 {
	if s.Family == FamilyTMCC1 {
		return tmcc1LowMask
	}
	return tmcc2LowMask
}

// ValidData reports whether data is acceptable for this spec.
func (s *Spec) ValidData(data uint32) bool {
	if s.DataMap != nil {
		_, ok := s.DataMap[data]
		return ok
	}
	if s.DataBits == 0 {
		return data == 0
	}
	return data >= s.DataMin && data <= s.DataMax
}

// ValidAddress reports whether addr is acceptable for this spec.
func (s *Spec) ValidAddress(addr uint8) bool {
	if s.NoAddress {
		return true
	}
	max := MaxAddress
	if s.Family == FamilyTMCC1 && s.Scope == ScopeRoute {
		max = MaxRouteAddrTMCC1
	}
	return addr >= MinAddress && addr <= max
}

// registry holds every defined spec, grouped for decode.
type registry struct {
	byKind map[Kind]*Spec

	// decode lookups keyed by family then word template.
	exact  map[Family]map[uint16]*Spec // NoAddress words
	fixed  map[Family]map[uint16]*Spec // DataBits == 0
	mapped map[Family][]*Spec          // DataMap specs
	byBits map[Family]map[uint8]map[uint16]*Spec
	multi  map[uint8]*Spec // FamilyMulti, keyed by Param
}

var specs = &registry{
	byKind: make(map[Kind]*Spec),
	exact:  make(map[Family]map[uint16]*Spec),
	fixed:  make(map[Family]map[uint16]*Spec),
	mapped: make(map[Family][]*Spec),
	byBits: make(map[Family]map[uint8]map[uint16]*Spec),
	multi:  make(map[uint8]*Spec),
}

func register(s *Spec) {
	if _, dup := specs.byKind[s.Kind]; dup {
		panic(fmt.Sprintf("protocol: duplicate spec for kind %s", s.Kind))
	}
	if s.DataMap != nil {
		s.revMap = make(map[uint16]uint32, len(s.DataMap))
		for data, bits := range s.DataMap {
			s.revMap[bits] = data
		}
	}
	specs.byKind[s.Kind] = s

	switch {
	case s.Family == FamilyMulti:
		specs.multi[s.Param] = s
	case s.NoAddress:
		m := specs.exact[s.Family]
		if m == nil {
			m = make(map[uint16]*Spec)
			specs.exact[s.Family] = m
		}
		m[s.Opcode] = s
	case s.DataMap != nil:
		specs.mapped[s.Family] = append(specs.mapped[s.Family], s)
	case s.DataBits == 0:
		m := specs.fixed[s.Family]
		if m == nil {
			m = make(map[uint16]*Spec)
			specs.fixed[s.Family] = m
		}
		m[s.Opcode] = s
	default:
		byFam := specs.byBits[s.Family]
		if byFam == nil {
			byFam = make(map[uint8]map[uint16]*Spec)
			specs.byBits[s.Family] = byFam
		}
		m := byFam[s.DataBits]
		if m == nil {
			m = make(map[uint16]*Spec)
			byFam[s.DataBits] = m
		}
		m[s.Opcode] = s
	}
}

// Lookup returns the spec for kind.
func Lookup(kind Kind) (*Spec, bool) {
	s, ok := specs.byKind[kind]
	return s, ok
}

// Kinds returns every registered kind, in no particular order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(specs.byKind))
	for k := range specs.byKind {
		out = append(out, k)
	}
	return out
}
