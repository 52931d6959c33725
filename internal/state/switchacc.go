package state

import (
	"time"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// SwitchPosition is the last commanded turnout position.
type SwitchPosition uint8

const (
	PositionUnknown SwitchPosition = iota
	PositionThrough
	PositionOut
)

func (p SwitchPosition) String() string {
	switch p {
	case PositionThrough:
		return "through"
	case PositionOut:
		return "out"
	}
	return "unknown"
}

// SwitchState tracks one turnout.
type SwitchState struct {
	base
	position SwitchPosition
}

func newSwitchState(address uint8) *SwitchState {
	return &SwitchState{base: newBase(protocol.ScopeSwitch, address)}
}

func (s *SwitchState) Position() SwitchPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *SwitchState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := map[string]any{"position": s.position.String()}
	s.lcsFields(fields)
	return Snapshot{Scope: s.scope.String(), Address: s.address, Updated: s.updated, Fields: fields}
}

func (s *SwitchState) apply(req *protocol.Request, effects []protocol.Kind, now time.Time) error {
	s.mu.Lock()
	if err := s.checkAddress(req.Address()); err != nil {
		s.mu.Unlock()
		return err
	}
	switch req.Kind() {
	case protocol.KindSwitchThrough:
		s.position = PositionThrough
	case protocol.KindSwitchOut:
		s.position = PositionOut
	case protocol.KindPdiFire:
		// An STM2 fire carries the thrown leg in the byte after the
		// action: 0 through, 1 out.
		if body := req.Payload(); len(body) >= 4 {
			if body[3] == 1 {
				s.position = PositionOut
			} else {
				s.position = PositionThrough
			}
		}
	}
	s.applyPDI(req)
	s.touch(now)
	s.mu.Unlock()
	s.note.notify()
	return nil
}

// AccessoryState tracks one accessory controller output.
type AccessoryState struct {
	base

	aux1, aux2         bool
	lastAux1, lastAux2 time.Time
	numeric            int
	debounce           time.Duration
}

func newAccessoryState(address uint8, debounce time.Duration) *AccessoryState {
	return &AccessoryState{base: newBase(protocol.ScopeAccessory, address), numeric: -1, debounce: debounce}
}

func (a *AccessoryState) Aux1() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aux1
}

func (a *AccessoryState) Aux2() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aux2
}

func (a *AccessoryState) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	fields := map[string]any{"aux1": a.aux1, "aux2": a.aux2}
	if a.numeric >= 0 {
		fields["numeric"] = a.numeric
	}
	a.lcsFields(fields)
	return Snapshot{Scope: a.scope.String(), Address: a.address, Updated: a.updated, Fields: fields}
}

func (a *AccessoryState) apply(req *protocol.Request, effects []protocol.Kind, now time.Time) error {
	a.mu.Lock()
	if err := a.checkAddress(req.Address()); err != nil {
		a.mu.Unlock()
		return err
	}

	a.applyKind(req.Kind(), req.Data(), now)
	a.applyPDI(req)
	for _, effect := range effects {
		if a.effectApplies(effect) {
			a.applyKind(effect, 0, now)
		}
	}

	a.touch(now)
	a.mu.Unlock()
	a.note.notify()
	return nil
}

func (a *AccessoryState) effectApplies(kind protocol.Kind) bool {
	switch kind {
	case protocol.KindAccAux1On:
		return a.aux1
	case protocol.KindAccAux1Off:
		return !a.aux1
	case protocol.KindAccAux2On:
		return a.aux2
	case protocol.KindAccAux2Off:
		return !a.aux2
	}
	return true
}

func (a *AccessoryState) applyKind(kind protocol.Kind, data uint32, now time.Time) {
	switch kind {
	case protocol.KindAccAux1Option1:
		if now.Sub(a.lastAux1) >= a.debounce {
			a.aux1 = !a.aux1
		}
		a.lastAux1 = now
	case protocol.KindAccAux2Option1:
		if now.Sub(a.lastAux2) >= a.debounce {
			a.aux2 = !a.aux2
		}
		a.lastAux2 = now
	case protocol.KindAccAux1On:
		a.aux1 = true
	case protocol.KindAccAux1Off:
		a.aux1 = false
	case protocol.KindAccAux2On:
		a.aux2 = true
	case protocol.KindAccAux2Off:
		a.aux2 = false
	case protocol.KindAccNumeric:
		a.numeric = int(data)
	}
}
