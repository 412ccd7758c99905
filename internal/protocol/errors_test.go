package protocol

import (
	"encoding/json"
	"testing"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrProtoVersion,
		ErrWorldBusy,
		ErrAlreadyOnline,
		ErrUnknownAction,
		ErrInvalidTarget,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestNewError_RoutesByType(t *testing.T) {
	b, err := json.Marshal(NewError(ErrUnknownAction, "nope"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	base, err := DecodeBase(b)
	if err != nil {
		t.Fatalf("DecodeBase: %v", err)
	}
	if base.Type != TypeError || base.ProtocolVersion != Version {
		t.Fatalf("base = %#v", base)
	}
}
