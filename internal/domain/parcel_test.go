package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateDeliveryPriceBookScenario(t *testing.T) {
	clothing := ParcelType{ID: 1, Name: "Clothing"}
	p, err := NewParcel("Book", dec("1.0"), clothing, dec("20"), "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := p.CalculateDeliveryPrice(dec("90.0"))
	if !got.Equal(dec("168")) {
		t.Fatalf("price = %s, want 168", got)
	}
	if p.IsPriced() {
		t.Fatalf("new parcel should be unpriced")
	}
}

func TestCalculateDeliveryPriceFormula(t *testing.T) {
	cases := []struct {
		weight, value, rate, want string
	}{
		{"0.5", "0", "90", "125"},
		{"2", "100", "80", "280"},
		{"1.25", "19.99", "92.5", "180.99075"},
		{"10", "1000", "0.01", "600.1"},
	}

	for _, c := range cases {
		p := &Parcel{Name: "x", Weight: dec(c.weight), ValueUSD: dec(c.value)}
		got := p.CalculateDeliveryPrice(dec(c.rate))
		if !got.Equal(dec(c.want)) {
			t.Errorf("weight=%s value=%s rate=%s: price = %s, want %s", c.weight, c.value, c.rate, got, c.want)
		}
	}
}

func TestCalculateDeliveryPriceIsLinearAndMonotonic(t *testing.T) {
	p := &Parcel{Name: "x", Weight: dec("3"), ValueUSD: dec("40")}
	doubled := &Parcel{Name: "x", Weight: dec("6"), ValueUSD: dec("80")}
	rate := dec("75")

	// f(2w, 2v) - 100 == 2 * (f(w, v) - 100)
	lhs := doubled.CalculateDeliveryPrice(rate).Sub(basePrice)
	rhs := p.CalculateDeliveryPrice(rate).Sub(basePrice).Mul(decimal.NewFromInt(2))
	if !lhs.Equal(rhs) {
		t.Fatalf("not linear: %s != %s", lhs, rhs)
	}

	prev := p.CalculateDeliveryPrice(dec("1"))
	for _, r := range []string{"1.5", "50", "90", "120.25"} {
		cur := p.CalculateDeliveryPrice(dec(r))
		if cur.LessThan(prev) {
			t.Fatalf("price decreased when rate rose to %s: %s < %s", r, cur, prev)
		}
		prev = cur
	}
}

func TestNewParcelRejectsInvalidInput(t *testing.T) {
	typ := ParcelType{ID: 3, Name: "Other"}
	cases := []struct {
		name   string
		pname  string
		weight string
		value  string
		field  string
	}{
		{"empty name", "", "1", "1", "name"},
		{"blank name", "   ", "1", "1", "name"},
		{"zero weight", "Box", "0", "1", "weight"},
		{"negative weight", "Box", "-2", "1", "weight"},
		{"negative value", "Box", "1", "-0.01", "value_usd"},
		{"name too long", strings.Repeat("n", MaxParcelNameLength+1), "1", "1", "name"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := NewParcel(c.pname, dec(c.weight), typ, dec(c.value), "S1")
			if p != nil {
				t.Fatalf("expected nil parcel, got %+v", p)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != c.field {
				t.Fatalf("err = %v, want field %q", err, c.field)
			}
		})
	}
}

func TestNewParcelAcceptsZeroValue(t *testing.T) {
	p, err := NewParcel("  Gift  ", dec("0.1"), ParcelType{ID: 3, Name: "Other"}, decimal.Zero, "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Gift" {
		t.Fatalf("name = %q, want trimmed %q", p.Name, "Gift")
	}
}

func TestNewParcelLengthLimitsCountCharacters(t *testing.T) {
	typ := ParcelType{ID: 3, Name: "Other"}

	if _, err := NewParcel(strings.Repeat("ж", MaxParcelNameLength), dec("1"), typ, dec("1"), "S1"); err != nil {
		t.Fatalf("128 multibyte characters should fit: %v", err)
	}

	_, err := NewParcel("Box", dec("1"), typ, dec("1"), strings.Repeat("s", MaxSessionIDLength+1))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "session_id" {
		t.Fatalf("err = %v, want session_id validation error", err)
	}
}

func TestSetDeliveryPrice(t *testing.T) {
	p := &Parcel{Name: "Box", Weight: dec("1"), ValueUSD: dec("1")}

	if err := p.SetDeliveryPrice(dec("-1")); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if p.IsPriced() {
		t.Fatalf("rejected price must not be stored")
	}

	if err := p.SetDeliveryPrice(decimal.Zero); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsPriced() || !p.DeliveryPrice.Decimal.IsZero() {
		t.Fatalf("delivery price = %+v, want 0", p.DeliveryPrice)
	}
}

func TestNewParcelType(t *testing.T) {
	if _, err := NewParcelType(" \t"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	pt, err := NewParcelType(" Electronics ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.Name != "Electronics" || pt.ID != 0 {
		t.Fatalf("parcel type = %+v", pt)
	}
}
