package state

import (
	"errors"
	"sync"
	"time"

	"github.com/danmuck/legacyctl/internal/protocol"
)

var (
	ErrAddressMismatch  = errors.New("state: command address conflicts with entity address")
	ErrUnsupportedScope = errors.New("state: scope has no entity record")
)

// DefaultDebounce is the window within which a repeated momentary press
// is the same logical press. A UX heuristic, not a protocol invariant.
const DefaultDebounce = time.Second

// Direction is the last commanded travel direction.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of one entity for read-side callers.
type Snapshot struct {
	Scope   string         `json:"scope"`
	Address uint8          `json:"address"`
	Updated time.Time      `json:"updated"`
	Fields  map[string]any `json:"fields"`
}

// Entity is one mutable component record.
type Entity interface {
	Scope() protocol.Scope
	Address() uint8
	LastUpdated() time.Time

	// Changed returns a channel closed on the next mutation.
	Changed() <-chan struct{}

	Snapshot() Snapshot

	apply(req *protocol.Request, effects []protocol.Kind, now time.Time) error
}

// base carries the fields every entity shares: identity, update clock,
// change notification, and the raw LCS board payloads PDI replies carry.
type base struct {
	mu sync.Mutex

	scope      protocol.Scope
	address    uint8
	addressSet bool
	updated    time.Time
	note       *notifier

	lcsConfig []byte
	lcsStatus []byte
}

func newBase(scope protocol.Scope, address uint8) base {
	return base{scope: scope, address: address, addressSet: address != 0, note: newNotifier()}
}

func (b *base) Scope() protocol.Scope { return b.scope }

func (b *base) Address() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.address
}

func (b *base) LastUpdated() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updated
}

func (b *base) Changed() <-chan struct{} { return b.note.Changed() }

// checkAddress adopts a first-seen address and rejects conflicts.
// Callers hold b.mu.
func (b *base) checkAddress(addr uint8) error {
	if addr == protocol.BroadcastAddress {
		return nil
	}
	if !b.addressSet {
		b.address = addr
		b.addressSet = true
		return nil
	}
	if b.address != addr {
		return ErrAddressMismatch
	}
	return nil
}

// touch stamps the update clock and wakes watchers. Callers hold b.mu
// when stamping but must release it before notify returns to watchers.
func (b *base) touch(now time.Time) {
	b.updated = now
}

// applyPDI folds generic LCS config/status payloads. Callers hold b.mu.
func (b *base) applyPDI(req *protocol.Request) {
	switch req.Kind() {
	case protocol.KindPdiConfigReply:
		b.lcsConfig = append([]byte(nil), req.Payload()...)
	case protocol.KindPdiStatusReply:
		b.lcsStatus = append([]byte(nil), req.Payload()...)
	}
}

func (b *base) lcsFields(fields map[string]any) {
	if len(b.lcsConfig) > 0 {
		fields["lcs_config_len"] = len(b.lcsConfig)
	}
	if len(b.lcsStatus) > 0 {
		fields["lcs_status_len"] = len(b.lcsStatus)
	}
}
