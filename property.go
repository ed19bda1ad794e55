package dali

import (
	"fmt"
	"math"
	"strconv"
)

// Device property data point identifiers (DPID).
const (
	DPIDPower     = 20 // bool: on/off
	DPIDWhiteLvl  = 21 // uint8: white level, 0-255
	DPIDBright    = 22 // uint16: brightness, 0-1000
	DPIDColorTemp = 23 // uint16: color temperature in Kelvin
	DPIDHSVColor  = 24 // string: 12 hex digits, HHHHSSSSVVVV
	DPIDEnergy    = 30 // string: stringified float
)

// Property is a single device property value as it appears on the wire:
// a DPID, its declared data type, and the value itself.
type Property struct {
	DPID     int    `json:"dpid"`
	DataType string `json:"dataType"`
	Value    any    `json:"value"`
}

// newProperty builds a Property with the data type tag the wire protocol
// expects for the given DPID.
func newProperty(dpid int, value any) Property {
	return Property{DPID: dpid, DataType: dataTypeFor(dpid), Value: value}
}

func dataTypeFor(dpid int) string {
	switch dpid {
	case DPIDPower:
		return "bool"
	case DPIDWhiteLvl:
		return "uint8"
	case DPIDBright:
		return "uint16"
	case DPIDColorTemp:
		return "uint16"
	case DPIDHSVColor:
		return "string"
	case DPIDEnergy:
		return "string"
	default:
		return "uint16"
	}
}

// ClampBrightness clamps a brightness value to the protocol's valid range,
// 0-1000.
func ClampBrightness(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// PackHSV encodes hue (0-360), saturation (0-1) and value (0-1) as the
// 12-hex-digit string the protocol uses for DPID 24.
func PackHSV(h, s, v float64) string {
	return fmt.Sprintf("%04x%04x%04x", int(h)&0xffff, int(s*1000)&0xffff, int(v*1000)&0xffff)
}

// UnpackHSV decodes a 12-hex-digit HSV string back into hue (0-360),
// saturation (0-1) and value (0-1).
func UnpackHSV(hex string) (h, s, v float64, err error) {
	if len(hex) != 12 {
		return 0, 0, 0, fmt.Errorf("dali: HSV string %q must be 12 hex digits", hex)
	}
	hi, err := strconv.ParseInt(hex[0:4], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dali: parse HSV hue: %w", err)
	}
	si, err := strconv.ParseInt(hex[4:8], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dali: parse HSV saturation: %w", err)
	}
	vi, err := strconv.ParseInt(hex[8:12], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("dali: parse HSV value: %w", err)
	}
	return float64(hi), float64(si) / 1000.0, float64(vi) / 1000.0, nil
}

// rgbToHSV converts 0-255 RGB components to hue (0-360), saturation (0-1)
// and value (0-1), matching the reference client's colorsys.rgb_to_hsv
// call over normalized 0-1 components.
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	r, g, b = r/255, g/255, b/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v = maxC
	delta := maxC - minC

	if maxC == 0 {
		return 0, 0, v
	}
	s = delta / maxC

	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// RGBWToProperties converts an RGBW color (each component 0-255) into the
// write-group property list the gateway expects: an HSV string (DPID 24)
// when any of R/G/B is non-zero, followed by a white-level property
// (DPID 21) when W is positive. It returns no properties for an all-zero
// color.
func RGBWToProperties(r, g, b, w float64) []Property {
	var props []Property

	if r != 0 || g != 0 || b != 0 {
		h, s, v := rgbToHSV(r, g, b)
		props = append(props, newProperty(DPIDHSVColor, PackHSV(h, s, v)))
	}
	if w > 0 {
		props = append(props, newProperty(DPIDWhiteLvl, int(w)))
	}
	return props
}

// ParseEnergy extracts the numeric energy reading from its stringified
// wire representation (DPID 30).
func ParseEnergy(value any) (float64, error) {
	s, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("dali: energy value %v is not a string", value)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("dali: parse energy value %q: %w", s, err)
	}
	return f, nil
}
