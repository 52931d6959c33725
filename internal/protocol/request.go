package protocol

import "fmt"

// Request is one logical command bound to an address and data value.
// Address and data are validated at construction; the wire bytes are
// recomputed whenever either changes.
type Request struct {
	spec    *Spec
	scope   Scope
	address uint8
	data    uint32

	// payload carries the raw PDI body for FamilyPDI requests.
	payload []byte

	wire []byte
}

// NewRequest builds a request targeting the spec's own scope.
func NewRequest(kind Kind, address uint8, data uint32) (*Request, error) {
	spec, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownCommand, kind)
	}
	return newRequest(spec, spec.Scope, address, data, nil)
}

// NewScopedRequest builds a request retargeted to scope. Engine specs may
// be retargeted to Train; PDI specs accept any scope (the board family
// decides); everything else must match the spec.
func NewScopedRequest(kind Kind, scope Scope, address uint8, data uint32) (*Request, error) {
	spec, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownCommand, kind)
	}
	if !scopeAllowed(spec, scope) {
		return nil, fmt.Errorf("%w: %s cannot target %s", ErrInvalidScope, kind, scope)
	}
	return newRequest(spec, scope, address, data, nil)
}

// NewPDIRequest builds a request bridged from a decoded PDI frame. The
// raw body (command, id, action, payload) rides along for state folding.
func NewPDIRequest(kind Kind, scope Scope, address uint8, data uint32, body []byte) (*Request, error) {
	spec, ok := Lookup(kind)
	if !ok || spec.Family != FamilyPDI {
		return nil, fmt.Errorf("%w: kind %d is not a pdi kind", ErrUnknownCommand, kind)
	}
	return newRequest(spec, scope, address, data, body)
}

func scopeAllowed(spec *Spec, scope Scope) bool {
	if scope == spec.Scope {
		return true
	}
	if spec.Family == FamilyPDI {
		return true
	}
	return scope == ScopeTrain && spec.Scope == ScopeEngine
}

func newRequest(spec *Spec, scope Scope, address uint8, data uint32, payload []byte) (*Request, error) {
	if !spec.ValidAddress(address) {
		return nil, fmt.Errorf("%w: %d for %s", ErrInvalidAddress, address, spec.Kind)
	}
	if !spec.ValidData(data) {
		return nil, fmt.Errorf("%w: %d for %s", ErrInvalidData, data, spec.Kind)
	}
	if spec.NoAddress {
		address = BroadcastAddress
	}
	r := &Request{spec: spec, scope: scope, address: address, data: data, payload: payload}
	if err := r.recompute(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Request) Kind() Kind     { return r.spec.Kind }
func (r *Request) Spec() *Spec    { return r.spec }
func (r *Request) Scope() Scope   { return r.scope }
func (r *Request) Address() uint8 { return r.address }
func (r *Request) Data() uint32   { return r.data }

// Payload returns the raw PDI body for FamilyPDI requests, nil otherwise.
func (r *Request) Payload() []byte { return r.payload }

// Bytes returns the cached wire encoding. Callers must not mutate it.
func (r *Request) Bytes() []byte { return r.wire }

// SetAddress rebinds the request to a new address and recomputes the
// wire bytes.
func (r *Request) SetAddress(address uint8) error {
	if !r.spec.ValidAddress(address) {
		return fmt.Errorf("%w: %d for %s", ErrInvalidAddress, address, r.spec.Kind)
	}
	r.address = address
	return r.recompute()
}

// SetData rebinds the request's data value and recomputes the wire bytes.
func (r *Request) SetData(data uint32) error {
	if !r.spec.ValidData(data) {
		return fmt.Errorf("%w: %d for %s", ErrInvalidData, data, r.spec.Kind)
	}
	r.data = data
	return r.recompute()
}

// IsHalt reports whether this is the system-wide halt.
func (r *Request) IsHalt() bool { return r.spec.Kind == KindHalt }

// IsMotiveHalt reports whether this is the halt restricted to engines
// and trains.
func (r *Request) IsMotiveHalt() bool { return r.spec.Kind == KindSystemHalt }

func (r *Request) String() string {
	return fmt.Sprintf("%s %s %d data=%d", r.scope, r.spec.Kind, r.address, r.data)
}

func (r *Request) recompute() error {
	if r.spec.Family == FamilyPDI {
		// PDI framing is owned by protocol/pdi; the bridge stores the
		// already-framed bytes via SetWire.
		return nil
	}
	wire, err := encode(r)
	if err != nil {
		return err
	}
	r.wire = wire
	return nil
}

// SetWire installs pre-framed wire bytes on a PDI request.
func (r *Request) SetWire(b []byte) { r.wire = b }
