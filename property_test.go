package dali

import (
	"math"
	"testing"
)

func TestClampBrightness(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-100, 0},
		{-1, 0},
		{0, 0},
		{500, 500},
		{1000, 1000},
		{1001, 1000},
		{5000, 1000},
	}
	for _, c := range cases {
		if got := ClampBrightness(c.in); got != c.want {
			t.Errorf("ClampBrightness(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPackUnpackHSVRoundTrip(t *testing.T) {
	cases := []struct{ h, s, v float64 }{
		{0, 0, 0},
		{180, 0.5, 0.5},
		{359, 1, 1},
		{90, 0.25, 0.75},
	}
	for _, c := range cases {
		packed := PackHSV(c.h, c.s, c.v)
		if len(packed) != 12 {
			t.Fatalf("PackHSV(%v,%v,%v) = %q, want 12 hex digits", c.h, c.s, c.v, packed)
		}
		h, s, v, err := UnpackHSV(packed)
		if err != nil {
			t.Fatalf("UnpackHSV(%q): %v", packed, err)
		}
		if math.Abs(h-c.h) > 1 {
			t.Errorf("hue round trip: got %v, want ~%v", h, c.h)
		}
		if math.Abs(s-c.s) > 0.01 {
			t.Errorf("saturation round trip: got %v, want ~%v", s, c.s)
		}
		if math.Abs(v-c.v) > 0.01 {
			t.Errorf("value round trip: got %v, want ~%v", v, c.v)
		}
	}
}

func TestUnpackHSVInvalidLength(t *testing.T) {
	if _, _, _, err := UnpackHSV("abc"); err == nil {
		t.Fatal("expected error for short HSV string")
	}
}

func TestUnpackHSVInvalidHex(t *testing.T) {
	if _, _, _, err := UnpackHSV("zzzzzzzzzzzz"); err == nil {
		t.Fatal("expected error for non-hex HSV string")
	}
}

func TestRGBWToPropertiesAllZero(t *testing.T) {
	props := RGBWToProperties(0, 0, 0, 0)
	if len(props) != 0 {
		t.Fatalf("expected no properties for all-zero color, got %v", props)
	}
}

func TestRGBWToPropertiesColorOnly(t *testing.T) {
	props := RGBWToProperties(255, 0, 0, 0)
	if len(props) != 1 {
		t.Fatalf("expected 1 property for red with no white, got %d", len(props))
	}
	if props[0].DPID != DPIDHSVColor {
		t.Errorf("expected DPIDHSVColor, got %d", props[0].DPID)
	}
}

func TestRGBWToPropertiesWithWhite(t *testing.T) {
	props := RGBWToProperties(255, 0, 0, 128)
	if len(props) != 2 {
		t.Fatalf("expected 2 properties for red+white, got %d", len(props))
	}
	if props[1].DPID != DPIDWhiteLvl {
		t.Errorf("expected second property to be DPIDWhiteLvl, got %d", props[1].DPID)
	}
}

func TestRGBWToPropertiesWhiteOnly(t *testing.T) {
	props := RGBWToProperties(0, 0, 0, 200)
	if len(props) != 1 {
		t.Fatalf("expected 1 property for white-only, got %d", len(props))
	}
	if props[0].DPID != DPIDWhiteLvl {
		t.Errorf("expected DPIDWhiteLvl, got %d", props[0].DPID)
	}
}

func TestParseEnergy(t *testing.T) {
	f, err := ParseEnergy("12.5")
	if err != nil {
		t.Fatalf("ParseEnergy: %v", err)
	}
	if f != 12.5 {
		t.Errorf("ParseEnergy = %v, want 12.5", f)
	}
}

func TestParseEnergyNotString(t *testing.T) {
	if _, err := ParseEnergy(12.5); err == nil {
		t.Fatal("expected error for non-string energy value")
	}
}

func TestParseEnergyInvalid(t *testing.T) {
	if _, err := ParseEnergy("not-a-number"); err == nil {
		t.Fatal("expected error for unparseable energy value")
	}
}
