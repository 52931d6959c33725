package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeKnownWords(t *testing.T) {
	cases := []struct {
		name    string
		kind    Kind
		scope   Scope
		address uint8
		data    uint32
		want    []byte
	}{
		{"halt", KindHalt, ScopeSystem, 0, 0, []byte{0xFE, 0xFF, 0xFF}},
		{"engine forward addr 1", KindTmcc1ForwardDirection, ScopeEngine, 1, 0, []byte{0xFE, 0x00, 0x80}},
		{"engine abs speed", KindTmcc1AbsoluteSpeed, ScopeEngine, 5, 10, []byte{0xFE, 0x02, 0xEA}},
		{"train retarget sets modifier", KindTmcc1RingBell, ScopeTrain, 2, 0, []byte{0xFE, 0xC1, 0x1D}},
		{"switch out", KindSwitchOut, ScopeSwitch, 3, 0, []byte{0xFE, 0x41, 0x9F}},
		{"accessory aux1 on", KindAccAux1On, ScopeAccessory, 7, 0, []byte{0xFE, 0x83, 0x8B}},
		{"system halt", KindSystemHalt, ScopeSystem, 0, 0, []byte{0xF8, 0xC7, 0xFE}},
		{"tmcc2 abs speed", KindTmcc2AbsoluteSpeed, ScopeEngine, 13, 120, []byte{0xF8, 0x1A, 0x78}},
		{"tmcc2 train bell on", KindTmcc2BellOn, ScopeTrain, 9, 0, []byte{0xF9, 0x13, 0xF5}},
		{"tmcc2 route fire", KindTmcc2RouteFire, ScopeRoute, 4, 0, []byte{0xFA, 0x09, 0xFE}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := NewScopedRequest(tc.kind, tc.scope, tc.address, tc.data)
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if !bytes.Equal(req.Bytes(), tc.want) {
				t.Fatalf("wire bytes % X, want % X", req.Bytes(), tc.want)
			}
		})
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	for _, kind := range Kinds() {
		spec, _ := Lookup(kind)
		if spec.Family == FamilyPDI {
			continue
		}
		data := spec.DataMin
		if spec.DataMap != nil {
			data = 1
		} else if spec.DataBits > 0 && spec.DataMax > 0 {
			data = spec.DataMax
		}
		addr := uint8(21)
		if spec.Family == FamilyTMCC1 && spec.Scope == ScopeRoute {
			addr = 11
		}

		req, err := NewRequest(kind, addr, data)
		if err != nil {
			t.Fatalf("%s: build failed: %v", kind, err)
		}
		got, err := Decode(req.Bytes())
		if err != nil {
			t.Fatalf("%s: decode of % X failed: %v", kind, req.Bytes(), err)
		}
		if got.Kind() != kind {
			t.Fatalf("%s: decoded as %s", kind, got.Kind())
		}
		if got.Data() != data {
			t.Fatalf("%s: data %d, want %d", kind, got.Data(), data)
		}
		if !spec.NoAddress && got.Address() != addr {
			t.Fatalf("%s: address %d, want %d", kind, got.Address(), addr)
		}
	}
}

func TestRoundTripTrainScope(t *testing.T) {
	for _, kind := range []Kind{KindTmcc1AbsoluteSpeed, KindTmcc2AbsoluteSpeed, KindParamMasterVolume} {
		req, err := NewScopedRequest(kind, ScopeTrain, 8, 3)
		if err != nil {
			t.Fatalf("%s: build failed: %v", kind, err)
		}
		got, err := Decode(req.Bytes())
		if err != nil {
			t.Fatalf("%s: decode failed: %v", kind, err)
		}
		if got.Scope() != ScopeTrain || got.Address() != 8 || got.Kind() != kind {
			t.Fatalf("%s: decoded %s", kind, got)
		}
	}
}

func TestMultiWordLayout(t *testing.T) {
	req, err := NewScopedRequest(KindParamMasterVolume, ScopeTrain, 10, 200)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	b := req.Bytes()
	if len(b) != 9 {
		t.Fatalf("expected 9 wire bytes, got %d", len(b))
	}
	if b[0] != PrefixTMCC2Train || b[3] != PrefixMulti || b[6] != PrefixMulti {
		t.Fatalf("bad word prefixes % X", b)
	}
	ab := byte(10<<1 | 1)
	if b[1] != ab || b[4] != ab || b[7] != ab {
		t.Fatalf("address bytes disagree: % X", b)
	}
	if b[8] != ^(b[1]+b[4]+b[6]) {
		t.Fatalf("checksum 0x%02X does not cover the group", b[8])
	}

	// Any corrupted checksum must be rejected.
	b = append([]byte(nil), b...)
	b[8] ^= 0x01
	if _, err := Decode(b); !errors.Is(err, ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame for bad checksum, got %v", err)
	}
}

func TestDecodeRejectsMalformedGroups(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"bad prefix", []byte{0x42, 0x00, 0x00}, ErrInvalidFrame},
		{"bad length", []byte{0xFE, 0x00}, ErrInvalidFrame},
		{"unknown tmcc1 word", []byte{0xFE, 0x00, 0x3B}, ErrUnknownCommand},
		{"engine word on route prefix", []byte{0xFA, 0x04, 0x00}, ErrUnknownCommand},
		{"multi word address mismatch", []byte{0xF8, 0x14, 0x04, 0xFB, 0x16, 0x10, 0xFB, 0x14, 0xDA}, ErrInvalidFrame},
		{"multi word missing prefix", []byte{0xF8, 0x14, 0x04, 0x00, 0x14, 0x10, 0xFB, 0x14, 0xDA}, ErrInvalidFrame},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDataValidation(t *testing.T) {
	if _, err := NewRequest(KindTmcc1AbsoluteSpeed, 5, 32); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for tmcc1 speed 32, got %v", err)
	}
	if _, err := NewRequest(KindTmcc2AbsoluteSpeed, 5, 200); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for tmcc2 speed 200, got %v", err)
	}
	if _, err := NewRequest(KindTmcc1Momentum, 5, 3); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for momentum 3, got %v", err)
	}
	if _, err := NewRequest(KindTmcc1ForwardDirection, 5, 1); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for fixed-word data, got %v", err)
	}
}

func TestAddressValidation(t *testing.T) {
	if _, err := NewRequest(KindTmcc2AbsoluteSpeed, 0, 5); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for address 0, got %v", err)
	}
	if _, err := NewRequest(KindTmcc2AbsoluteSpeed, 100, 5); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for address 100, got %v", err)
	}
	// TMCC1 routes stop at 31.
	if _, err := NewRequest(KindRouteFire, 32, 0); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for tmcc1 route 32, got %v", err)
	}
	if _, err := NewRequest(KindTmcc2RouteFire, 32, 0); err != nil {
		t.Fatalf("tmcc2 route 32 should be valid: %v", err)
	}
}

func TestScopeRetargeting(t *testing.T) {
	if _, err := NewScopedRequest(KindTmcc1AbsoluteSpeed, ScopeTrain, 3, 10); err != nil {
		t.Fatalf("engine command should retarget to train: %v", err)
	}
	if _, err := NewScopedRequest(KindTmcc1AbsoluteSpeed, ScopeSwitch, 3, 10); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope for switch retarget, got %v", err)
	}
	if _, err := NewScopedRequest(KindSwitchOut, ScopeEngine, 3, 0); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope for switch-to-engine retarget, got %v", err)
	}
}

func TestSetAddressAndDataRecompute(t *testing.T) {
	req, err := NewRequest(KindTmcc2AbsoluteSpeed, 5, 40)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	before := append([]byte(nil), req.Bytes()...)

	if err := req.SetAddress(6); err != nil {
		t.Fatalf("SetAddress failed: %v", err)
	}
	if err := req.SetData(41); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	if bytes.Equal(req.Bytes(), before) {
		t.Fatalf("wire bytes did not recompute")
	}

	got, err := Decode(req.Bytes())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Address() != 6 || got.Data() != 41 {
		t.Fatalf("decoded %s, want address 6 data 41", got)
	}

	if err := req.SetData(500); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if req.Data() != 41 {
		t.Fatalf("failed SetData mutated the request")
	}
}

func TestHaltClassification(t *testing.T) {
	halt, err := NewRequest(KindHalt, 0, 0)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !halt.IsHalt() || halt.IsMotiveHalt() {
		t.Fatalf("halt misclassified")
	}
	if halt.Address() != BroadcastAddress {
		t.Fatalf("halt address %d, want broadcast", halt.Address())
	}

	motive, err := NewRequest(KindSystemHalt, 0, 0)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if motive.IsHalt() || !motive.IsMotiveHalt() {
		t.Fatalf("system halt misclassified")
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, kind := range Kinds() {
		name := kind.String()
		if name == "" || name == "unknown" {
			t.Fatalf("kind %d has no name", kind)
		}
		back, ok := ParseKind(name)
		if !ok || back != kind {
			t.Fatalf("ParseKind(%q) = %v, %v", name, back, ok)
		}
	}
}
