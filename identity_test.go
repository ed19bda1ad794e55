package dali

import "testing"

func TestDeviceIDStable(t *testing.T) {
	a := DeviceID("0101", 1, 5, "GW001")
	b := DeviceID("0101", 1, 5, "GW001")
	if a != b {
		t.Fatalf("DeviceID is not stable across calls: %q vs %q", a, b)
	}
}

func TestDeviceIDDistinguishesAddress(t *testing.T) {
	a := DeviceID("0101", 1, 5, "GW001")
	b := DeviceID("0101", 1, 6, "GW001")
	if a == b {
		t.Fatalf("DeviceID must differ for different addresses, both gave %q", a)
	}
}

func TestDeviceNameFallsBackWhenTypeUnknown(t *testing.T) {
	name := DeviceName("ZZZZ", 1, 5)
	if name != "Device ZZZZ 5" {
		t.Fatalf("got %q, want a generic fallback name", name)
	}
}

func TestDeviceNameUsesCategory(t *testing.T) {
	for devType, category := range DeviceTypeMap {
		name := DeviceName(devType, 1, 2)
		want := category + " 2"
		if name != want {
			t.Fatalf("DeviceName(%q) = %q, want %q", devType, name, want)
		}
		break
	}
}

func TestGroupIDAndSceneIDShareFormat(t *testing.T) {
	g := GroupID(1, 2, "GW001")
	sc := SceneID(1, 2, "GW001")
	if g != sc {
		t.Fatalf("GroupID and SceneID use the same format and should match for identical inputs: %q vs %q", g, sc)
	}
}

func TestDeviceKeyIsDeterministic(t *testing.T) {
	k1 := deviceKey("0101", 1, 1)
	k2 := deviceKey("0101", 1, 1)
	if k1 != k2 {
		t.Fatalf("deviceKey should be deterministic: %q vs %q", k1, k2)
	}
}
