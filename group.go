package dali

// Group is a thin wrapper over a Session's WriteGroup command, kept only
// far enough to exercise the RGBW-to-HSV write path end to end; a host
// application's own domain layer is expected to build a richer type on
// top of Session directly.
type Group struct {
	session *Session
	id      int
	channel int
	name    string
}

// NewGroup wraps session for interacting with one discovered group.
func NewGroup(session *Session, group DiscoveredGroup) *Group {
	return &Group{session: session, id: group.ID, channel: group.Channel, name: group.Name}
}

// UniqueID returns the group's stable identifier.
func (g *Group) UniqueID() string {
	return GroupID(g.id, g.channel, g.session.gw.GwSN)
}

// TurnOn turns the group on, optionally setting brightness, color
// temperature, and/or an RGBW color in the same write.
func (g *Group) TurnOn(brightness, colorTempKelvin int, r, gc, b, w float64) error {
	props := []Property{newProperty(DPIDPower, true)}

	if brightness > 0 {
		props = append(props, newProperty(DPIDBright, ClampBrightness(brightness)))
	}
	if colorTempKelvin > 0 {
		props = append(props, newProperty(DPIDColorTemp, colorTempKelvin))
	}
	props = append(props, RGBWToProperties(r, gc, b, w)...)

	return g.session.WriteGroup(g.id, g.channel, props)
}

// TurnOff turns the group off.
func (g *Group) TurnOff() error {
	return g.session.WriteGroup(g.id, g.channel, []Property{newProperty(DPIDPower, false)})
}
