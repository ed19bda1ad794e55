package dali

import "fmt"

// DeviceID returns the stable identifier for a device: its type, channel
// and bus address combined with the owning gateway's serial number, so the
// same physical device always resolves to the same ID across reconnects
// and gateway restarts.
func DeviceID(devType string, channel, address int, gwSN string) string {
	return fmt.Sprintf("%s-%d-%d-%s", devType, channel, address, gwSN)
}

// DeviceName returns a human-readable default name for a device that did
// not report its own name, combining the device type's category with its
// bus address.
func DeviceName(devType string, channel, address int) string {
	if category, ok := DeviceTypeMap[devType]; ok {
		return fmt.Sprintf("%s %d", category, address)
	}
	return fmt.Sprintf("Device %s %d", devType, address)
}

// GroupID returns the stable identifier for a group.
func GroupID(id, channel int, gwSN string) string {
	return fmt.Sprintf("%d-%d-%s", channel, id, gwSN)
}

// SceneID returns the stable identifier for a scene.
func SceneID(id, channel int, gwSN string) string {
	return fmt.Sprintf("%d-%d-%s", channel, id, gwSN)
}

// deviceKey is the coalescing key used by the dispatcher to collapse
// multiple pending commands for the same device into one batch entry. It
// intentionally omits the gateway serial: a dispatcher instance is always
// scoped to a single gateway.
func deviceKey(devType string, channel, address int) string {
	return fmt.Sprintf("%s_%d_%d", devType, channel, address)
}
