package pdi

import (
	"fmt"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// boardScope maps a command discriminator to the entity scope its frames
// fold into.
func boardScope(cmd Command) protocol.Scope {
	switch cmd {
	case CmdBase3Engine:
		return protocol.ScopeEngine
	case CmdBase3Train:
		return protocol.ScopeTrain
	case CmdBase3Acc, CmdAsc2Get, CmdAsc2Set, CmdAsc2Rx, CmdBpc2Get, CmdBpc2Set, CmdBpc2Rx:
		return protocol.ScopeAccessory
	case CmdBase3Switch, CmdStm2Get, CmdStm2Set, CmdStm2Rx:
		return protocol.ScopeSwitch
	case CmdBase3Route:
		return protocol.ScopeRoute
	case CmdIrdaGet, CmdIrdaSet, CmdIrdaRx:
		return protocol.ScopeIrda
	}
	return protocol.ScopeSystem
}

func bridgeKind(cmd Command, action byte) protocol.Kind {
	if cmd == CmdPing {
		return protocol.KindPdiPing
	}
	if cmd == CmdIrdaRx {
		return protocol.KindPdiIrdaReport
	}
	switch cmd {
	case CmdIrdaGet, CmdSer2Get, CmdAsc2Get, CmdBpc2Get, CmdStm2Get:
		if action == ActionConfig {
			return protocol.KindPdiConfigRequest
		}
		return protocol.KindPdiStatusRequest
	case CmdIrdaSet, CmdSer2Set, CmdAsc2Set, CmdBpc2Set, CmdStm2Set:
		if action == ActionFire {
			return protocol.KindPdiFire
		}
		return protocol.KindPdiConfigRequest
	case CmdSer2Rx, CmdAsc2Rx, CmdBpc2Rx, CmdStm2Rx:
		if action == ActionConfig {
			return protocol.KindPdiConfigReply
		}
		return protocol.KindPdiStatusReply
	case CmdBase3Engine, CmdBase3Train, CmdBase3Acc, CmdBase3Switch, CmdBase3Route:
		if action == ActionFire {
			return protocol.KindPdiFire
		}
		return protocol.KindPdiStatusReply
	case CmdBase3Base:
		return protocol.KindPdiStatusReply
	}
	return protocol.KindUnknown
}

// ToRequest bridges a decoded frame into the logical command model so it
// can flow through the dispatcher like any TMCC command.
func ToRequest(f Frame) (*protocol.Request, error) {
	kind := bridgeKind(f.Command, f.Action())
	if kind == protocol.KindUnknown {
		return nil, fmt.Errorf("%w: pdi command 0x%02X", protocol.ErrUnknownCommand, byte(f.Command))
	}

	scope := boardScope(f.Command)
	addr := f.ID
	if addr < protocol.MinAddress || addr > protocol.MaxAddress {
		if kind != protocol.KindPdiPing {
			return nil, fmt.Errorf("%w: pdi id %d", protocol.ErrInvalidAddress, f.ID)
		}
		addr = protocol.BroadcastAddress
	}

	data := uint32(f.Action())
	body := make([]byte, 0, 2+len(f.Payload))
	body = append(body, byte(f.Command), f.ID)
	body = append(body, f.Payload...)

	req, err := protocol.NewPDIRequest(kind, scope, addr, data, body)
	if err != nil {
		return nil, err
	}
	req.SetWire(Encode(f))
	return req, nil
}

// DecodeToRequest is the codec entry point used by the stream assembler.
func DecodeToRequest(raw []byte) (*protocol.Request, error) {
	f, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return ToRequest(f)
}
