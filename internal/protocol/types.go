package protocol

import "errors"

var (
	ErrInvalidData    = errors.New("protocol: data out of range")
	ErrInvalidAddress = errors.New("protocol: address out of range")
	ErrInvalidScope   = errors.New("protocol: scope not valid for command")
	ErrUnknownCommand = errors.New("protocol: unknown opcode bits")
	ErrInvalidFrame   = errors.New("protocol: malformed frame")
)

// Scope is the class of addressable entity a command targets.
type Scope uint8

const (
	ScopeSystem Scope = iota
	ScopeEngine
	ScopeTrain
	ScopeSwitch
	ScopeAccessory
	ScopeRoute
	ScopeIrda
)

var scopeNames = map[Scope]string{
	ScopeSystem:    "system",
	ScopeEngine:    "engine",
	ScopeTrain:     "train",
	ScopeSwitch:    "switch",
	ScopeAccessory: "accessory",
	ScopeRoute:     "route",
	ScopeIrda:      "irda",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseScope maps a scope name to its Scope value.
func ParseScope(name string) (Scope, bool) {
	for s, n := range scopeNames {
		if n == name {
			return s, true
		}
	}
	return ScopeSystem, false
}

// Family selects the wire format a spec encodes to.
type Family uint8

const (
	FamilyTMCC1 Family = iota + 1
	FamilyTMCC2
	FamilyMulti // TMCC2 multi-word parameter format
	FamilyPDI
)

func (f Family) String() string {
	switch f {
	case FamilyTMCC1:
		return "tmcc1"
	case FamilyTMCC2:
		return "tmcc2"
	case FamilyMulti:
		return "tmcc2-multi"
	case FamilyPDI:
		return "pdi"
	}
	return "unknown"
}

// Wire prefix bytes.
const (
	PrefixTMCC1       byte = 0xFE
	PrefixTMCC2Engine byte = 0xF8
	PrefixTMCC2Train  byte = 0xF9
	PrefixTMCC2Route  byte = 0xFA
	PrefixMulti       byte = 0xFB
)

// Address bounds. Address 99 doubles as the scope-wide broadcast address.
const (
	MinAddress        uint8 = 1
	MaxAddress        uint8 = 99
	MaxRouteAddrTMCC1 uint8 = 31
	BroadcastAddress  uint8 = 99
)

// KnownPrefix reports whether b can start a TMCC byte group on the wire.
func KnownPrefix(b byte) bool {
	switch b {
	case PrefixTMCC1, PrefixTMCC2Engine, PrefixTMCC2Train, PrefixTMCC2Route, PrefixMulti:
		return true
	}
	return false
}
