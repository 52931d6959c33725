package state

import "github.com/danmuck/legacyctl/internal/protocol"

// effectKey addresses one dependency entry; HasData entries only match
// the exact fired data value.
type effectKey struct {
	Kind    protocol.Kind
	Data    uint32
	HasData bool
}

// DependencyMap is the static table from a fired command to the commands
// it implies. Read-only after construction.
type DependencyMap struct {
	m map[effectKey][]protocol.Kind
}

// ResultsIn returns the kinds implied by firing kind with data. An
// exact-data entry wins over the data-independent entry.
func (d *DependencyMap) ResultsIn(kind protocol.Kind, data uint32) []protocol.Kind {
	if out, ok := d.m[effectKey{Kind: kind, Data: data, HasData: true}]; ok {
		return out
	}
	return d.m[effectKey{Kind: kind}]
}

// DefaultDependencies builds the table for the stock command set: each
// momentary "option" press implies the concrete on/off pair it toggles,
// and a direction toggle implies the two concrete directions.
func DefaultDependencies() *DependencyMap {
	d := &DependencyMap{m: make(map[effectKey][]protocol.Kind)}

	add := func(kind protocol.Kind, implies ...protocol.Kind) {
		d.m[effectKey{Kind: kind}] = implies
	}
	addData := func(kind protocol.Kind, data uint32, implies ...protocol.Kind) {
		d.m[effectKey{Kind: kind, Data: data, HasData: true}] = implies
	}

	add(protocol.KindTmcc1Aux1Option1, protocol.KindTmcc1Aux1On, protocol.KindTmcc1Aux1Off)
	add(protocol.KindTmcc1Aux2Option1, protocol.KindTmcc1Aux2On, protocol.KindTmcc1Aux2Off)
	add(protocol.KindTmcc2Aux1Option1, protocol.KindTmcc2Aux1On, protocol.KindTmcc2Aux1Off)
	add(protocol.KindTmcc2Aux2Option1, protocol.KindTmcc2Aux2On, protocol.KindTmcc2Aux2Off)
	add(protocol.KindAccAux1Option1, protocol.KindAccAux1On, protocol.KindAccAux1Off)
	add(protocol.KindAccAux2Option1, protocol.KindAccAux2On, protocol.KindAccAux2Off)

	add(protocol.KindTmcc1ToggleDirection, protocol.KindTmcc1ForwardDirection, protocol.KindTmcc1ReverseDirection)
	add(protocol.KindTmcc2ToggleDirection, protocol.KindTmcc2ForwardDirection, protocol.KindTmcc2ReverseDirection)

	// Numeric 0 on an engine pad resets sound; it implies the let-off.
	addData(protocol.KindTmcc1Numeric, 0, protocol.KindTmcc1LetOffSound)
	addData(protocol.KindTmcc2Numeric, 0, protocol.KindTmcc2LetOffSound)

	return d
}
