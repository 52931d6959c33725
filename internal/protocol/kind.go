package protocol

// Kind identifies one logical command. Kinds are namespaced per wire
// family because TMCC1 and TMCC2 carry different ranges for the same
// physical action.
type Kind uint16

const (
	KindUnknown Kind = iota

	// System.
	KindHalt       // TMCC1 broadcast halt, every scope
	KindSystemHalt // TMCC2 halt restricted to engines and trains

	// TMCC1 engine/train.
	KindTmcc1ForwardDirection
	KindTmcc1ToggleDirection
	KindTmcc1ReverseDirection
	KindTmcc1BoostSpeed
	KindTmcc1BrakeSpeed
	KindTmcc1FrontCoupler
	KindTmcc1RearCoupler
	KindTmcc1Aux1Off
	KindTmcc1Aux1Option1
	KindTmcc1Aux1Option2
	KindTmcc1Aux1On
	KindTmcc1Aux2Off
	KindTmcc1Aux2Option1
	KindTmcc1Aux2Option2
	KindTmcc1Aux2On
	KindTmcc1Numeric
	KindTmcc1AbsoluteSpeed
	KindTmcc1RelativeSpeed
	KindTmcc1Momentum
	KindTmcc1BlowHorn1
	KindTmcc1BlowHorn2
	KindTmcc1RingBell
	KindTmcc1LetOffSound
	KindTmcc1SetAddress

	// TMCC1 switch.
	KindSwitchThrough
	KindSwitchOut
	KindSwitchSetAddress

	// TMCC1 accessory.
	KindAccAux1Off
	KindAccAux1Option1
	KindAccAux1Option2
	KindAccAux1On
	KindAccAux2Off
	KindAccAux2Option1
	KindAccAux2Option2
	KindAccAux2On
	KindAccNumeric
	KindAccSetAddress

	// TMCC1 route.
	KindRouteFire

	// TMCC2 engine/train.
	KindTmcc2AbsoluteSpeed
	KindTmcc2RelativeSpeed
	KindTmcc2Momentum
	KindTmcc2TrainBrake
	KindTmcc2DieselRunLevel
	KindTmcc2ForwardDirection
	KindTmcc2ToggleDirection
	KindTmcc2ReverseDirection
	KindTmcc2BoostSpeed
	KindTmcc2BrakeSpeed
	KindTmcc2FrontCoupler
	KindTmcc2RearCoupler
	KindTmcc2Aux1Off
	KindTmcc2Aux1Option1
	KindTmcc2Aux1Option2
	KindTmcc2Aux1On
	KindTmcc2Aux2Off
	KindTmcc2Aux2Option1
	KindTmcc2Aux2Option2
	KindTmcc2Aux2On
	KindTmcc2Numeric
	KindTmcc2QuillingHorn
	KindTmcc2BlowHorn
	KindTmcc2BellOn
	KindTmcc2BellOff
	KindTmcc2StartupImmediate
	KindTmcc2StartupDelayed
	KindTmcc2ShutdownImmediate
	KindTmcc2ShutdownDelayed
	KindTmcc2LetOffSound

	// TMCC2 route.
	KindTmcc2RouteFire

	// TMCC2 multi-word parameters.
	KindParamDialog
	KindParamSoundEffect
	KindParamLightingEffect
	KindParamMasterVolume
	KindParamSmokeLevel

	// PDI bridge kinds.
	KindPdiPing
	KindPdiConfigRequest
	KindPdiConfigReply
	KindPdiStatusRequest
	KindPdiStatusReply
	KindPdiFire
	KindPdiIrdaReport
)

var kindNames = map[Kind]string{
	KindHalt:       "halt",
	KindSystemHalt: "system_halt",

	KindTmcc1ForwardDirection: "tmcc1_forward_direction",
	KindTmcc1ToggleDirection:  "tmcc1_toggle_direction",
	KindTmcc1ReverseDirection: "tmcc1_reverse_direction",
	KindTmcc1BoostSpeed:       "tmcc1_boost_speed",
	KindTmcc1BrakeSpeed:       "tmcc1_brake_speed",
	KindTmcc1FrontCoupler:     "tmcc1_front_coupler",
	KindTmcc1RearCoupler:      "tmcc1_rear_coupler",
	KindTmcc1Aux1Off:          "tmcc1_aux1_off",
	KindTmcc1Aux1Option1:      "tmcc1_aux1_option1",
	KindTmcc1Aux1Option2:      "tmcc1_aux1_option2",
	KindTmcc1Aux1On:           "tmcc1_aux1_on",
	KindTmcc1Aux2Off:          "tmcc1_aux2_off",
	KindTmcc1Aux2Option1:      "tmcc1_aux2_option1",
	KindTmcc1Aux2Option2:      "tmcc1_aux2_option2",
	KindTmcc1Aux2On:           "tmcc1_aux2_on",
	KindTmcc1Numeric:          "tmcc1_numeric",
	KindTmcc1AbsoluteSpeed:    "tmcc1_absolute_speed",
	KindTmcc1RelativeSpeed:    "tmcc1_relative_speed",
	KindTmcc1Momentum:         "tmcc1_momentum",
	KindTmcc1BlowHorn1:        "tmcc1_blow_horn1",
	KindTmcc1BlowHorn2:        "tmcc1_blow_horn2",
	KindTmcc1RingBell:         "tmcc1_ring_bell",
	KindTmcc1LetOffSound:      "tmcc1_let_off_sound",
	KindTmcc1SetAddress:       "tmcc1_set_address",

	KindSwitchThrough:    "switch_through",
	KindSwitchOut:        "switch_out",
	KindSwitchSetAddress: "switch_set_address",

	KindAccAux1Off:     "acc_aux1_off",
	KindAccAux1Option1: "acc_aux1_option1",
	KindAccAux1Option2: "acc_aux1_option2",
	KindAccAux1On:      "acc_aux1_on",
	KindAccAux2Off:     "acc_aux2_off",
	KindAccAux2Option1: "acc_aux2_option1",
	KindAccAux2Option2: "acc_aux2_option2",
	KindAccAux2On:      "acc_aux2_on",
	KindAccNumeric:     "acc_numeric",
	KindAccSetAddress:  "acc_set_address",

	KindRouteFire: "route_fire",

	KindTmcc2AbsoluteSpeed:     "tmcc2_absolute_speed",
	KindTmcc2RelativeSpeed:     "tmcc2_relative_speed",
	KindTmcc2Momentum:          "tmcc2_momentum",
	KindTmcc2TrainBrake:        "tmcc2_train_brake",
	KindTmcc2DieselRunLevel:    "tmcc2_diesel_run_level",
	KindTmcc2ForwardDirection:  "tmcc2_forward_direction",
	KindTmcc2ToggleDirection:   "tmcc2_toggle_direction",
	KindTmcc2ReverseDirection:  "tmcc2_reverse_direction",
	KindTmcc2BoostSpeed:        "tmcc2_boost_speed",
	KindTmcc2BrakeSpeed:        "tmcc2_brake_speed",
	KindTmcc2FrontCoupler:      "tmcc2_front_coupler",
	KindTmcc2RearCoupler:       "tmcc2_rear_coupler",
	KindTmcc2Aux1Off:           "tmcc2_aux1_off",
	KindTmcc2Aux1Option1:       "tmcc2_aux1_option1",
	KindTmcc2Aux1Option2:       "tmcc2_aux1_option2",
	KindTmcc2Aux1On:            "tmcc2_aux1_on",
	KindTmcc2Aux2Off:           "tmcc2_aux2_off",
	KindTmcc2Aux2Option1:       "tmcc2_aux2_option1",
	KindTmcc2Aux2Option2:       "tmcc2_aux2_option2",
	KindTmcc2Aux2On:            "tmcc2_aux2_on",
	KindTmcc2Numeric:           "tmcc2_numeric",
	KindTmcc2QuillingHorn:      "tmcc2_quilling_horn",
	KindTmcc2BlowHorn:          "tmcc2_blow_horn",
	KindTmcc2BellOn:            "tmcc2_bell_on",
	KindTmcc2BellOff:           "tmcc2_bell_off",
	KindTmcc2StartupImmediate:  "tmcc2_startup_immediate",
	KindTmcc2StartupDelayed:    "tmcc2_startup_delayed",
	KindTmcc2ShutdownImmediate: "tmcc2_shutdown_immediate",
	KindTmcc2ShutdownDelayed:   "tmcc2_shutdown_delayed",
	KindTmcc2LetOffSound:       "tmcc2_let_off_sound",

	KindTmcc2RouteFire: "tmcc2_route_fire",

	KindParamDialog:         "param_dialog",
	KindParamSoundEffect:    "param_sound_effect",
	KindParamLightingEffect: "param_lighting_effect",
	KindParamMasterVolume:   "param_master_volume",
	KindParamSmokeLevel:     "param_smoke_level",

	KindPdiPing:          "pdi_ping",
	KindPdiConfigRequest: "pdi_config_request",
	KindPdiConfigReply:   "pdi_config_reply",
	KindPdiStatusRequest: "pdi_status_request",
	KindPdiStatusReply:   "pdi_status_reply",
	KindPdiFire:          "pdi_fire",
	KindPdiIrdaReport:    "pdi_irda_report",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind value.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}
