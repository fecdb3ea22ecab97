package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 1000, true},
		{"1.0", 1000, true},
		{"1.234", 1234, true},
		{"1,234", 1234, true},
		{"0.001", 1, true},
		{"0.0005", 1, true}, // half-up rounding
		{"1.2344", 1234, true},
		{" 75.000 ", 75000, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Millimes != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Millimes, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.000",
		75000:  "75.000",
		1:      "0.001",
		-60500: "-60.500",
	}
	for in, want := range cases {
		if got := Millimes(in).String(); got != want {
			t.Fatalf("%d: expected %s, got %s", in, want, got)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustParseAmount("100.000")
	b := MustParseAmount("40.000")
	if got := a.Sub(b); got.Millimes != 60000 {
		t.Fatalf("expected 60000, got %d", got.Millimes)
	}
	if got := Sum(a, b, b.Neg()); got != a {
		t.Fatalf("expected %v, got %v", a, got)
	}
	if Max(a, b) != a || Max(b, a) != a {
		t.Fatalf("max picked the wrong operand")
	}
}

func TestMoneyJSONRoundTripKeepsSign(t *testing.T) {
	in := struct {
		Balance Money `json:"balance"`
	}{Balance: Millimes(-12345)}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"balance":"-12.345"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	var out struct {
		Balance Money `json:"balance"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Balance != in.Balance {
		t.Fatalf("expected %v, got %v", in.Balance, out.Balance)
	}
}
