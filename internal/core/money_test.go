package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"110.00", 11000, true},
		{"1,250.50", 125050, true},
		{"1,23,456.78", 12345678, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"10,000,000,000.00", MaxAmountCents, true},
		{"10000000000.01", 0, false},
		{"100000000000000000000", 0, false},
		{"184467440737095516.17", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 11000}).String(); got != "110.00" {
		t.Fatalf("expected 110.00, got %s", got)
	}
	if got := (Money{Cents: 5}).String(); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 125050}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":1250.50}` {
		t.Fatalf("got %s", b)
	}

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":110,"b":"1,250.5"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.A.Cents != 11000 || in.B.Cents != 125050 {
		t.Fatalf("got %+v", in)
	}
	if err := json.Unmarshal([]byte(`{"a":"abc"}`), &in); err == nil {
		t.Fatal("expected error")
	}
}

func TestMoneyFromDecimal_Range(t *testing.T) {
	m, err := MoneyFromDecimal(decimal.RequireFromString("-10000000000"))
	if err != nil || m.Cents != -MaxAmountCents {
		t.Fatalf("lower bound: got %d, %v", m.Cents, err)
	}
	for _, in := range []string{"10000000000.01", "-10000000000.01", "123456789012345678901.00"} {
		if _, err := MoneyFromDecimal(decimal.RequireFromString(in)); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestMoneyJSON_RejectsOverflow(t *testing.T) {
	var in struct {
		A Money `json:"a"`
	}
	for _, body := range []string{`{"a":"184467440737095516.17"}`, `{"a":100000000000000000000}`} {
		err := json.Unmarshal([]byte(body), &in)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", body, err)
		}
	}
}

func TestMoneyValidate_UpperBound(t *testing.T) {
	if err := (Money{Cents: MaxAmountCents}).Validate(); err != nil {
		t.Fatalf("max amount should be valid: %v", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
