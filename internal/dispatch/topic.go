package dispatch

import (
	"fmt"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// TopicKind discriminates the four subscription shapes.
type TopicKind uint8

const (
	TopicBroadcast TopicKind = iota
	TopicScope
	TopicAddress
	TopicCommand
)

// Topic is a typed dispatch key. The zero Topic is the broadcast topic.
type Topic struct {
	Kind    TopicKind
	Scope   protocol.Scope
	Address uint8
	Command protocol.Kind
}

func Broadcast() Topic { return Topic{} }

func ScopeTopic(s protocol.Scope) Topic {
	return Topic{Kind: TopicScope, Scope: s}
}

func AddressTopic(s protocol.Scope, address uint8) Topic {
	return Topic{Kind: TopicAddress, Scope: s, Address: address}
}

func CommandTopic(s protocol.Scope, address uint8, kind protocol.Kind) Topic {
	return Topic{Kind: TopicCommand, Scope: s, Address: address, Command: kind}
}

func (t Topic) String() string {
	switch t.Kind {
	case TopicBroadcast:
		return "broadcast"
	case TopicScope:
		return t.Scope.String()
	case TopicAddress:
		return fmt.Sprintf("%s/%d", t.Scope, t.Address)
	default:
		return fmt.Sprintf("%s/%d/%s", t.Scope, t.Address, t.Command)
	}
}
