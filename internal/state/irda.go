package state

import (
	"time"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// IrdaState tracks one sensor track: the last engine or train it saw
// and a monotonically increasing read sequence.
type IrdaState struct {
	base

	lastScope     protocol.Scope
	lastEntity    uint8
	lastDirection Direction
	sequence      uint64
}

func newIrdaState(address uint8) *IrdaState {
	return &IrdaState{base: newBase(protocol.ScopeIrda, address)}
}

func (i *IrdaState) LastSeen() (protocol.Scope, uint8) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastScope, i.lastEntity
}

func (i *IrdaState) Sequence() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sequence
}

func (i *IrdaState) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	fields := map[string]any{
		"sequence": i.sequence,
	}
	if i.lastEntity != 0 {
		fields["last_scope"] = i.lastScope.String()
		fields["last_entity"] = i.lastEntity
		fields["last_direction"] = i.lastDirection.String()
	}
	i.lcsFields(fields)
	return Snapshot{Scope: i.scope.String(), Address: i.address, Updated: i.updated, Fields: fields}
}

func (i *IrdaState) apply(req *protocol.Request, effects []protocol.Kind, now time.Time) error {
	i.mu.Lock()
	if err := i.checkAddress(req.Address()); err != nil {
		i.mu.Unlock()
		return err
	}

	// A sensor read body is [cmd, id, action, scope, entity, direction].
	if req.Kind() == protocol.KindPdiIrdaReport {
		if body := req.Payload(); len(body) >= 6 {
			i.lastScope = protocol.ScopeEngine
			if body[3] == 1 {
				i.lastScope = protocol.ScopeTrain
			}
			i.lastEntity = body[4]
			switch body[5] {
			case 1:
				i.lastDirection = DirectionForward
			case 2:
				i.lastDirection = DirectionReverse
			default:
				i.lastDirection = DirectionUnknown
			}
			i.sequence++
		}
	}
	i.applyPDI(req)

	i.touch(now)
	i.mu.Unlock()
	i.note.notify()
	return nil
}
