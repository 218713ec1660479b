package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":             OK,
		"invalid_config": InvalidConfig,
		"invalid_line":   InvalidLine,
		"unknown_pin":    UnknownPin,
		"no_response":    NoResponse,
		"timeout":        Timeout,
		"checksum":       Checksum,
		"error":          Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestSentinelCarriesCode(t *testing.T) {
	errT := Sentinel("dht", Timeout)
	if errT.Error() != "dht: timeout" {
		t.Fatalf("message = %q", errT.Error())
	}
	wrapped := fmt.Errorf("read byte 3: %w", errT)
	if !errors.Is(wrapped, errT) {
		t.Fatal("wrapped sentinel not matched by errors.Is")
	}
	if got := MapDriverErr(wrapped); got != Timeout {
		t.Fatalf("MapDriverErr = %q, want timeout", got)
	}
}

func TestOfFallbacks(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(Checksum) != Checksum {
		t.Fatal("bare code should map to itself")
	}
	if Of(&E{C: InvalidConfig, Msg: "period"}) != InvalidConfig {
		t.Fatal("E should expose its code")
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("unknown error should map to generic code")
	}
	if MapDriverErr(nil) != OK {
		t.Fatal("MapDriverErr(nil) should be ok")
	}
}

func TestWrapperMatchesCode(t *testing.T) {
	err := fmt.Errorf("assemble: %w", &E{C: UnknownPin, Op: "node", Msg: "no gpio 40"})
	if !errors.Is(err, UnknownPin) {
		t.Fatal("errors.Is should match the wrapper's code")
	}
	if errors.Is(err, InvalidLine) {
		t.Fatal("different code matched")
	}
	if err.Error() != "assemble: unknown_pin: no gpio 40" {
		t.Fatalf("message = %q", err.Error())
	}
}
