package state

import (
	"time"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// EngineState tracks one engine or train.
type EngineState struct {
	base

	speed      int // -1 until first observed
	speedLimit int
	direction  Direction
	momentum   int // -1 until first observed
	trainBrake int
	runLevel   int
	numeric    int
	started    bool
	bell       bool

	aux1, aux2         bool
	lastAux1, lastAux2 time.Time
	debounce           time.Duration
}

func newEngineState(scope protocol.Scope, address uint8, debounce time.Duration) *EngineState {
	return &EngineState{
		base:       newBase(scope, address),
		speed:      -1,
		speedLimit: 199,
		momentum:   -1,
		trainBrake: -1,
		runLevel:   -1,
		numeric:    -1,
		debounce:   debounce,
	}
}

func (e *EngineState) Speed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *EngineState) Direction() Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.direction
}

func (e *EngineState) Momentum() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.momentum
}

func (e *EngineState) Aux1() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aux1
}

func (e *EngineState) Aux2() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aux2
}

func (e *EngineState) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

func (e *EngineState) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	fields := map[string]any{
		"speed":     e.speed,
		"direction": e.direction.String(),
		"momentum":  e.momentum,
		"aux1":      e.aux1,
		"aux2":      e.aux2,
		"started":   e.started,
		"bell":      e.bell,
	}
	if e.trainBrake >= 0 {
		fields["train_brake"] = e.trainBrake
	}
	if e.runLevel >= 0 {
		fields["run_level"] = e.runLevel
	}
	e.lcsFields(fields)
	return Snapshot{Scope: e.scope.String(), Address: e.address, Updated: e.updated, Fields: fields}
}

func (e *EngineState) apply(req *protocol.Request, effects []protocol.Kind, now time.Time) error {
	e.mu.Lock()
	if err := e.checkAddress(req.Address()); err != nil {
		e.mu.Unlock()
		return err
	}

	e.applyKind(req.Kind(), req.Data(), now)
	e.applyPDI(req)
	for _, effect := range effects {
		if e.effectApplies(effect) {
			e.applyKind(effect, 0, now)
		}
	}

	e.touch(now)
	e.mu.Unlock()
	e.note.notify()
	return nil
}

// resetMotion clears the tracked motion fields after a halt.
func (e *EngineState) resetMotion(now time.Time) {
	e.mu.Lock()
	e.speed = 0
	e.direction = DirectionUnknown
	e.touch(now)
	e.mu.Unlock()
	e.note.notify()
}

// effectApplies filters the dependency set down to the effects that are
// consistent with the state the direct command just produced. An AUX1
// press implies AUX1 ON or AUX1 OFF, never both.
func (e *EngineState) effectApplies(kind protocol.Kind) bool {
	switch kind {
	case protocol.KindTmcc1Aux1On, protocol.KindTmcc2Aux1On:
		return e.aux1
	case protocol.KindTmcc1Aux1Off, protocol.KindTmcc2Aux1Off:
		return !e.aux1
	case protocol.KindTmcc1Aux2On, protocol.KindTmcc2Aux2On:
		return e.aux2
	case protocol.KindTmcc1Aux2Off, protocol.KindTmcc2Aux2Off:
		return !e.aux2
	case protocol.KindTmcc1ForwardDirection, protocol.KindTmcc2ForwardDirection:
		return e.direction == DirectionForward
	case protocol.KindTmcc1ReverseDirection, protocol.KindTmcc2ReverseDirection:
		return e.direction == DirectionReverse
	}
	return true
}

func (e *EngineState) applyKind(kind protocol.Kind, data uint32, now time.Time) {
	switch kind {
	case protocol.KindTmcc1AbsoluteSpeed, protocol.KindTmcc2AbsoluteSpeed:
		e.speed = int(data)
	case protocol.KindTmcc1RelativeSpeed, protocol.KindTmcc2RelativeSpeed:
		cur := e.speed
		if cur < 0 {
			cur = 0
		}
		e.speed = clamp(cur+int(data)-5, 0, e.speedLimit)
	case protocol.KindTmcc1BoostSpeed, protocol.KindTmcc2BoostSpeed:
		if e.speed >= 0 && e.speed < e.speedLimit {
			e.speed++
		}
	case protocol.KindTmcc1BrakeSpeed, protocol.KindTmcc2BrakeSpeed:
		if e.speed > 0 {
			e.speed--
		}

	case protocol.KindTmcc1ForwardDirection, protocol.KindTmcc2ForwardDirection:
		e.direction = DirectionForward
	case protocol.KindTmcc1ReverseDirection, protocol.KindTmcc2ReverseDirection:
		e.direction = DirectionReverse
	case protocol.KindTmcc1ToggleDirection, protocol.KindTmcc2ToggleDirection:
		switch e.direction {
		case DirectionForward:
			e.direction = DirectionReverse
		case DirectionReverse:
			e.direction = DirectionForward
		default:
			e.direction = DirectionForward
		}

	case protocol.KindTmcc1Momentum, protocol.KindTmcc2Momentum:
		e.momentum = int(data)
	case protocol.KindTmcc2TrainBrake:
		e.trainBrake = int(data)
	case protocol.KindTmcc2DieselRunLevel:
		e.runLevel = int(data)
	case protocol.KindTmcc1Numeric, protocol.KindTmcc2Numeric:
		e.numeric = int(data)

	case protocol.KindTmcc1Aux1Option1, protocol.KindTmcc2Aux1Option1:
		if now.Sub(e.lastAux1) >= e.debounce {
			e.aux1 = !e.aux1
		}
		e.lastAux1 = now
	case protocol.KindTmcc1Aux2Option1, protocol.KindTmcc2Aux2Option1:
		if now.Sub(e.lastAux2) >= e.debounce {
			e.aux2 = !e.aux2
		}
		e.lastAux2 = now
	case protocol.KindTmcc1Aux1On, protocol.KindTmcc2Aux1On:
		e.aux1 = true
	case protocol.KindTmcc1Aux1Off, protocol.KindTmcc2Aux1Off:
		e.aux1 = false
	case protocol.KindTmcc1Aux2On, protocol.KindTmcc2Aux2On:
		e.aux2 = true
	case protocol.KindTmcc1Aux2Off, protocol.KindTmcc2Aux2Off:
		e.aux2 = false

	case protocol.KindTmcc1RingBell:
		e.bell = !e.bell
	case protocol.KindTmcc2BellOn:
		e.bell = true
	case protocol.KindTmcc2BellOff:
		e.bell = false

	case protocol.KindTmcc2StartupImmediate, protocol.KindTmcc2StartupDelayed:
		e.started = true
	case protocol.KindTmcc2ShutdownImmediate, protocol.KindTmcc2ShutdownDelayed:
		e.started = false
		e.speed = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
