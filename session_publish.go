package dali

import (
	"context"
	"time"
)

// GetVersion requests the gateway's software/firmware version and waits
// up to discoverTimeout for the response.
func (s *Session) GetVersion(ctx context.Context) (Version, error) {
	v, err := s.request(ctx, waiterVersion, discoverTimeout, envelope{Cmd: cmdGetVersion, MsgID: newMsgID(), GwSN: s.gw.GwSN})
	if err != nil {
		return Version{}, err
	}
	return v.(Version), nil
}

// DiscoverDevices asks the gateway to enumerate its bound devices and
// waits up to discoverTimeout for the accumulated result.
func (s *Session) DiscoverDevices(ctx context.Context) ([]Device, error) {
	v, err := s.request(ctx, waiterDevices, discoverTimeout, searchDevCommand{
		Cmd: cmdSearchDev, SearchFlag: "exited", MsgID: newMsgID(), GwSN: s.gw.GwSN,
	})
	if err != nil {
		return nil, err
	}
	return v.([]Device), nil
}

// DiscoverGroups asks the gateway to enumerate its groups across every
// channel and waits up to discoverTimeout for the accumulated result.
func (s *Session) DiscoverGroups(ctx context.Context) ([]DiscoveredGroup, error) {
	v, err := s.request(ctx, waiterGroups, discoverTimeout, getRequestCommand{
		Cmd: cmdGetGroup, MsgID: newMsgID(), GetFlag: "exited", GwSN: s.gw.GwSN,
	})
	if err != nil {
		return nil, err
	}
	return v.([]DiscoveredGroup), nil
}

// DiscoverScenes asks the gateway to enumerate its scenes across every
// channel and waits up to discoverTimeout for the accumulated result.
func (s *Session) DiscoverScenes(ctx context.Context) ([]DiscoveredScene, error) {
	v, err := s.request(ctx, waiterScenes, discoverTimeout, getRequestCommand{
		Cmd: cmdGetScene, MsgID: newMsgID(), GetFlag: "exited", GwSN: s.gw.GwSN,
	})
	if err != nil {
		return nil, err
	}
	return v.([]DiscoveredScene), nil
}

// IdentifyDevice asks the gateway to trigger its device-identify behavior
// (e.g. blinking a light) and waits up to identifyTimeout for the ack
// boolean.
func (s *Session) IdentifyDevice(ctx context.Context, devType string, channel, address int) (bool, error) {
	devID := DeviceID(devType, channel, address, s.gw.GwSN)
	v, err := s.request(ctx, identifyWaiterKey(devID), identifyTimeout, sensorOnOffCommand{
		Cmd: cmdIdentifyDev, MsgID: newMsgID(), GwSN: s.gw.GwSN,
		DevType: devType, Channel: channel, Address: address,
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// request arms the correlation waiter, publishes payload, and blocks for
// the response: register, send, wait, matching every request/response
// command's handshake shape.
func (s *Session) request(ctx context.Context, key waiterKey, timeout time.Duration, payload any) (any, error) {
	ch := s.dispatch.register(key)

	if err := s.publishPayload(payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, nil
	case <-timer.C:
		return nil, newGatewayError(s.gw.GwSN, ErrCodeConnectionTimeout, ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WriteDevice enqueues a property write for one device into the 100ms
// coalescing batch for the "writeDev" command.
func (s *Session) WriteDevice(devType string, channel, address int, properties []Property) {
	s.dispatch.AddRequest(cmdWriteDev, devType, channel, address, deviceCommandData{
		DevType: devType, Channel: channel, Address: address, Property: properties,
	})
}

// ReadDevice enqueues a property read request for one device into the
// 100ms coalescing batch for the "readDev" command.
func (s *Session) ReadDevice(devType string, channel, address int) {
	s.dispatch.AddRequest(cmdReadDev, devType, channel, address, deviceCommandData{
		DevType: devType, Channel: channel, Address: address,
	})
}

// WriteGroup publishes a property write to every device in a group. Unlike
// WriteDevice, group writes are not coalesced: the wire protocol addresses
// the whole group in a single message already.
func (s *Session) WriteGroup(groupID, channel int, properties []Property) error {
	return s.publishPayload(writeGroupCommand{
		Cmd: cmdWriteGroup, MsgID: newMsgID(), GwSN: s.gw.GwSN,
		Channel: channel, GroupID: groupID, Data: properties,
	})
}

// WriteScene recalls a scene on a channel.
func (s *Session) WriteScene(sceneID, channel int) error {
	return s.publishPayload(writeSceneCommand{
		Cmd: cmdWriteScene, MsgID: newMsgID(), GwSN: s.gw.GwSN,
		Channel: channel, SceneID: sceneID,
	})
}

// SetSensorOnOff enables or disables a sensor device.
func (s *Session) SetSensorOnOff(devType string, channel, address int, value bool) error {
	return s.publishPayload(sensorOnOffCommand{
		Cmd: cmdSetSensorOnOff, MsgID: newMsgID(), GwSN: s.gw.GwSN,
		DevType: devType, Channel: channel, Address: address, Value: &value,
	})
}

// GetSensorOnOff requests a sensor device's current enable state; the
// response arrives asynchronously as a SENSOR_PARAM event rather than a
// correlated reply, matching the reference client's own fire-and-forget
// handling of this command.
func (s *Session) GetSensorOnOff(devType string, channel, address int) error {
	return s.publishPayload(sensorOnOffCommand{
		Cmd: cmdGetSensorOnOff, MsgID: newMsgID(), GwSN: s.gw.GwSN,
		DevType: devType, Channel: channel, Address: address,
	})
}
