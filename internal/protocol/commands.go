package protocol

// The spec table. Opcode values are full word templates with address and
// data fields zeroed; TMCC1 templates include the scope marker bits.

func init() {
	registerTMCC1()
	registerTMCC2()
	registerMulti()
	registerPDI()
}

func registerTMCC1() {
	engine := func(kind Kind, opcode uint16) *Spec {
		return &Spec{Kind: kind, Family: FamilyTMCC1, Scope: ScopeEngine, Opcode: Tmcc1MarkerEngine | opcode}
	}

	register(&Spec{Kind: KindHalt, Family: FamilyTMCC1, Scope: ScopeSystem, Opcode: Tmcc1HaltWord, NoAddress: true})

	register(engine(KindTmcc1ForwardDirection, 0x00))
	register(engine(KindTmcc1ToggleDirection, 0x01))
	register(engine(KindTmcc1ReverseDirection, 0x03))
	register(engine(KindTmcc1BoostSpeed, 0x04))
	register(engine(KindTmcc1FrontCoupler, 0x05))
	register(engine(KindTmcc1RearCoupler, 0x06))
	register(engine(KindTmcc1BrakeSpeed, 0x07))
	register(engine(KindTmcc1Aux1Off, 0x08))
	register(engine(KindTmcc1Aux1Option1, 0x09))
	register(engine(KindTmcc1Aux1Option2, 0x0A))
	register(engine(KindTmcc1Aux1On, 0x0B))
	register(engine(KindTmcc1Aux2Off, 0x0C))
	register(engine(KindTmcc1Aux2Option1, 0x0D))
	register(engine(KindTmcc1Aux2Option2, 0x0E))
	register(engine(KindTmcc1Aux2On, 0x0F))
	register(engine(KindTmcc1BlowHorn1, 0x1C))
	register(engine(KindTmcc1RingBell, 0x1D))
	register(engine(KindTmcc1LetOffSound, 0x1E))
	register(engine(KindTmcc1BlowHorn2, 0x1F))
	register(engine(KindTmcc1SetAddress, 0x2B))

	register(&Spec{
		Kind: KindTmcc1Numeric, Family: FamilyTMCC1, Scope: ScopeEngine,
		Opcode: Tmcc1MarkerEngine | 0x10, DataBits: 4, DataMax: 9,
	})
	register(&Spec{
		Kind: KindTmcc1RelativeSpeed, Family: FamilyTMCC1, Scope: ScopeEngine,
		Opcode: Tmcc1MarkerEngine | 0x40, DataBits: 4, DataMax: 10,
	})
	register(&Spec{
		Kind: KindTmcc1AbsoluteSpeed, Family: FamilyTMCC1, Scope: ScopeEngine,
		Opcode: Tmcc1MarkerEngine | 0x60, DataBits: 5, DataMax: 31,
	})
	register(&Spec{
		Kind: KindTmcc1Momentum, Family: FamilyTMCC1, Scope: ScopeEngine,
		Opcode:  Tmcc1MarkerEngine,
		DataMap: map[uint32]uint16{0: 0x28, 1: 0x29, 2: 0x2A},
	})

	register(&Spec{Kind: KindSwitchThrough, Family: FamilyTMCC1, Scope: ScopeSwitch, Opcode: Tmcc1MarkerSwitch | 0x00})
	register(&Spec{Kind: KindSwitchOut, Family: FamilyTMCC1, Scope: ScopeSwitch, Opcode: Tmcc1MarkerSwitch | 0x1F})
	register(&Spec{Kind: KindSwitchSetAddress, Family: FamilyTMCC1, Scope: ScopeSwitch, Opcode: Tmcc1MarkerSwitch | 0x2B})

	register(&Spec{Kind: KindRouteFire, Family: FamilyTMCC1, Scope: ScopeRoute, Opcode: Tmcc1MarkerSwitch | 0x20})

	acc := func(kind Kind, opcode uint16) *Spec {
		return &Spec{Kind: kind, Family: FamilyTMCC1, Scope: ScopeAccessory, Opcode: Tmcc1MarkerAccessory | opcode}
	}
	register(acc(KindAccAux1Off, 0x08))
	register(acc(KindAccAux1Option1, 0x09))
	register(acc(KindAccAux1Option2, 0x0A))
	register(acc(KindAccAux1On, 0x0B))
	register(acc(KindAccAux2Off, 0x0C))
	register(acc(KindAccAux2Option1, 0x0D))
	register(acc(KindAccAux2Option2, 0x0E))
	register(acc(KindAccAux2On, 0x0F))
	register(acc(KindAccSetAddress, 0x2B))
	register(&Spec{
		Kind: KindAccNumeric, Family: FamilyTMCC1, Scope: ScopeAccessory,
		Opcode: Tmcc1MarkerAccessory | 0x10, DataBits: 4, DataMax: 9,
	})
}

func registerTMCC2() {
	engine := func(kind Kind, opcode uint16) *Spec {
		return &Spec{Kind: kind, Family: FamilyTMCC2, Scope: ScopeEngine, Opcode: opcode}
	}

	// Halt for motive entities only; the word is the broadcast address
	// with the reserved halt opcode.
	register(&Spec{
		Kind: KindSystemHalt, Family: FamilyTMCC2, Scope: ScopeSystem,
		Opcode: uint16(BroadcastAddress)<<tmcc2AddrShift | 0x1FE, NoAddress: true,
	})

	register(&Spec{
		Kind: KindTmcc2AbsoluteSpeed, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x000, DataBits: 8, DataMax: 199,
	})
	register(&Spec{
		Kind: KindTmcc2Momentum, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x0C8, DataBits: 3, DataMax: 7,
	})
	register(&Spec{
		Kind: KindTmcc2DieselRunLevel, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x0D0, DataBits: 3, DataMax: 7,
	})
	register(&Spec{
		Kind: KindTmcc2TrainBrake, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x0F0, DataBits: 3, DataMax: 7,
	})

	register(engine(KindTmcc2ForwardDirection, 0x100))
	register(engine(KindTmcc2ToggleDirection, 0x101))
	register(engine(KindTmcc2ReverseDirection, 0x103))
	register(engine(KindTmcc2BoostSpeed, 0x104))
	register(engine(KindTmcc2FrontCoupler, 0x105))
	register(engine(KindTmcc2RearCoupler, 0x106))
	register(engine(KindTmcc2BrakeSpeed, 0x107))
	register(engine(KindTmcc2Aux1Off, 0x108))
	register(engine(KindTmcc2Aux1Option1, 0x109))
	register(engine(KindTmcc2Aux1Option2, 0x10A))
	register(engine(KindTmcc2Aux1On, 0x10B))
	register(engine(KindTmcc2Aux2Off, 0x10C))
	register(engine(KindTmcc2Aux2Option1, 0x10D))
	register(engine(KindTmcc2Aux2Option2, 0x10E))
	register(engine(KindTmcc2Aux2On, 0x10F))
	register(engine(KindTmcc2BlowHorn, 0x11C))
	register(engine(KindTmcc2LetOffSound, 0x11E))
	register(engine(KindTmcc2BellOff, 0x1F4))
	register(engine(KindTmcc2BellOn, 0x1F5))
	register(engine(KindTmcc2StartupDelayed, 0x1FA))
	register(engine(KindTmcc2StartupImmediate, 0x1FB))
	register(engine(KindTmcc2ShutdownDelayed, 0x1FC))
	register(engine(KindTmcc2ShutdownImmediate, 0x1FD))

	register(&Spec{
		Kind: KindTmcc2Numeric, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x110, DataBits: 4, DataMax: 9,
	})
	register(&Spec{
		Kind: KindTmcc2RelativeSpeed, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x140, DataBits: 4, DataMax: 10,
	})
	register(&Spec{
		Kind: KindTmcc2QuillingHorn, Family: FamilyTMCC2, Scope: ScopeEngine,
		Opcode: 0x1E0, DataBits: 5, DataMax: 16,
	})

	register(&Spec{Kind: KindTmcc2RouteFire, Family: FamilyTMCC2, Scope: ScopeRoute, Opcode: 0x1FE})
}

func registerMulti() {
	param := func(kind Kind, index uint8) *Spec {
		return &Spec{Kind: kind, Family: FamilyMulti, Scope: ScopeEngine, Param: index, DataBits: 8, DataMax: 255}
	}
	register(param(KindParamDialog, 0x01))
	register(param(KindParamSoundEffect, 0x02))
	register(param(KindParamLightingEffect, 0x03))
	register(param(KindParamMasterVolume, 0x04))
	register(param(KindParamSmokeLevel, 0x05))
}

func registerPDI() {
	pdi := func(kind Kind, scope Scope) *Spec {
		return &Spec{Kind: kind, Family: FamilyPDI, Scope: scope, DataBits: 8, DataMax: 255}
	}
	register(&Spec{Kind: KindPdiPing, Family: FamilyPDI, Scope: ScopeSystem, NoAddress: true})
	register(pdi(KindPdiConfigRequest, ScopeSystem))
	register(pdi(KindPdiConfigReply, ScopeSystem))
	register(pdi(KindPdiStatusRequest, ScopeSystem))
	register(pdi(KindPdiStatusReply, ScopeSystem))
	register(pdi(KindPdiFire, ScopeSystem))
	register(pdi(KindPdiIrdaReport, ScopeIrda))
}
