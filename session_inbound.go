package dali

import (
	"encoding/json"
	"log/slog"
)

// handleInbound decodes and routes one inbound MQTT payload. It runs only
// on the session's run-loop goroutine, so the accumulator fields it
// touches (devicesAcc/groupsAcc/scenesAcc below) need no locking.
func (s *Session) handleInbound(payload []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.logger.Warn("discard undecodable MQTT message", slog.Any("error", err))
		return
	}
	if env.Cmd == "" {
		s.logger.Warn("discard MQTT message without cmd field")
		return
	}

	switch env.Cmd {
	case cmdDevStatus, cmdReadDevRes:
		s.handleDeviceStatus(payload)
	case cmdWriteDevRes, cmdWriteGroupRes, cmdWriteSceneRes:
		s.logger.Debug("write response", slog.String("cmd", env.Cmd))
	case cmdOnlineStatus:
		s.handleOnlineStatus(payload)
	case cmdReportEnergy:
		s.handleEnergyReport(payload)
	case cmdSearchDevRes:
		s.handleSearchDevResponse(payload)
	case cmdGetSceneRes:
		s.handleGetSceneResponse(payload)
	case cmdGetGroupRes:
		s.handleGetGroupResponse(payload)
	case cmdGetVersionRes:
		s.handleGetVersionResponse(payload)
	case cmdSetSensorOnOffRes:
		s.logger.Debug("setSensorOnOff response")
	case cmdGetSensorOnOffRes:
		s.handleGetSensorOnOffResponse(payload)
	case cmdIdentifyDevRes:
		s.handleIdentifyDevResponse(payload)
	default:
		s.logger.Debug("unhandled MQTT command", slog.String("cmd", env.Cmd))
	}
}

func (s *Session) handleDeviceStatus(payload []byte) {
	var msg deviceStatusPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode devStatus", slog.Any("error", err))
		return
	}
	d := msg.Data
	devID := DeviceID(d.DevType, d.Channel, d.Address, s.gw.GwSN)

	kind := s.statusKindFor(d.DevType)
	s.registry.Dispatch(Event{Kind: kind, TargetID: devID, Data: d.Property})
	s.metrics.EventDispatched(kind)
}

// statusKindFor picks which status event kind a device's own type reports
// under: motion/illuminance sensors and panels get their own kind, every
// other device type (dimmers, CCT, RGB/RGBW/XY drivers) is a light.
func (s *Session) statusKindFor(devType string) EventKind {
	switch {
	case len(devType) >= 2 && devType[:2] == "02":
		if devType == "0202" {
			return EventIlluminance
		}
		return EventMotionStatus
	case len(devType) >= 2 && devType[:2] == "03":
		return EventPanelStatus
	default:
		return EventLightStatus
	}
}

func (s *Session) handleOnlineStatus(payload []byte) {
	var msg onlineStatusPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode onlineStatus", slog.Any("error", err))
		return
	}
	for _, d := range msg.Data {
		devID := DeviceID(d.DevType, d.Channel, d.Address, s.gw.GwSN)
		s.registry.Dispatch(Event{Kind: EventOnlineStatus, TargetID: devID, Data: d.Status})
		s.metrics.EventDispatched(EventOnlineStatus)
	}
}

func (s *Session) handleEnergyReport(payload []byte) {
	var msg energyReportPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode reportEnergy", slog.Any("error", err))
		return
	}
	d := msg.Data
	devID := DeviceID(d.DevType, d.Channel, d.Address, s.gw.GwSN)

	for _, prop := range d.Property {
		if prop.DPID != DPIDEnergy {
			continue
		}
		value, err := ParseEnergy(prop.Value)
		if err != nil {
			s.logger.Error("decode energy value", slog.Any("error", err))
			continue
		}
		s.registry.Dispatch(Event{Kind: EventEnergyReport, TargetID: devID, Data: value})
		s.metrics.EventDispatched(EventEnergyReport)
	}
}

func (s *Session) handleSearchDevResponse(payload []byte) {
	var msg searchDevResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode searchDevRes", slog.Any("error", err))
		return
	}

	for _, raw := range msg.Data {
		name := raw.Name
		if name == "" {
			name = DeviceName(raw.DevType, raw.Channel, raw.Address)
		}
		uniqueID := DeviceID(raw.DevType, raw.Channel, raw.Address, s.gw.GwSN)
		id := raw.DevID
		if id == "" {
			id = uniqueID
		}

		dev := Device{
			ID:       id,
			UniqueID: uniqueID,
			DevType:  raw.DevType,
			Channel:  raw.Channel,
			Address:  raw.Address,
			Status:   raw.Status,
			Name:     name,
			DevSN:    raw.DevSN,
			AreaName: raw.AreaName,
			AreaID:   raw.AreaID,
		}

		found := false
		for _, existing := range s.devicesAcc {
			if existing.UniqueID == dev.UniqueID {
				found = true
				break
			}
		}
		if !found {
			s.devicesAcc = append(s.devicesAcc, dev)
		}
	}

	if msg.SearchStatus == 0 || msg.SearchStatus == 1 {
		result := s.devicesAcc
		s.devicesAcc = nil
		s.dispatch.complete(waiterDevices, result)
	}
}

// handleGetSceneResponse accumulates scenes across every channel in the
// payload before completing the waiter. The reference implementation
// clears its accumulator on each channel entry, so a gateway with scenes
// on more than one channel only ever returns the last channel's scenes;
// accumulating across channels is a deliberate correction.
func (s *Session) handleGetSceneResponse(payload []byte) {
	var msg getSceneResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode getSceneRes", slog.Any("error", err))
		return
	}

	for _, cs := range msg.Scene {
		for _, sc := range cs.Data {
			scene := DiscoveredScene{
				ID:       sc.SceneID,
				UniqueID: SceneID(sc.SceneID, cs.Channel, s.gw.GwSN),
				Name:     sc.Name,
				Channel:  cs.Channel,
				AreaID:   sc.AreaID,
			}
			found := false
			for _, existing := range s.scenesAcc {
				if existing.UniqueID == scene.UniqueID {
					found = true
					break
				}
			}
			if !found {
				s.scenesAcc = append(s.scenesAcc, scene)
			}
		}
	}

	result := s.scenesAcc
	s.scenesAcc = nil
	s.dispatch.complete(waiterScenes, result)
}

// handleGetGroupResponse mirrors handleGetSceneResponse's cross-channel
// accumulation fix for groups.
func (s *Session) handleGetGroupResponse(payload []byte) {
	var msg getGroupResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode getGroupRes", slog.Any("error", err))
		return
	}

	for _, cg := range msg.Group {
		for _, g := range cg.Data {
			group := DiscoveredGroup{
				ID:       g.GroupID,
				UniqueID: GroupID(g.GroupID, cg.Channel, s.gw.GwSN),
				Name:     g.Name,
				Channel:  cg.Channel,
				AreaID:   g.AreaID,
			}
			found := false
			for _, existing := range s.groupsAcc {
				if existing.UniqueID == group.UniqueID {
					found = true
					break
				}
			}
			if !found {
				s.groupsAcc = append(s.groupsAcc, group)
			}
		}
	}

	result := s.groupsAcc
	s.groupsAcc = nil
	s.dispatch.complete(waiterGroups, result)
}

func (s *Session) handleGetVersionResponse(payload []byte) {
	var msg getVersionResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode getVersionRes", slog.Any("error", err))
		return
	}
	s.dispatch.complete(waiterVersion, Version{Software: msg.Data.SwVersion, Firmware: msg.Data.FwVersion})
}

func (s *Session) handleGetSensorOnOffResponse(payload []byte) {
	var msg sensorOnOffResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode getSensorOnOffRes", slog.Any("error", err))
		return
	}
	devID := DeviceID(msg.DevType, msg.Channel, msg.Address, s.gw.GwSN)
	s.registry.Dispatch(Event{Kind: EventSensorParam, TargetID: devID, Data: msg.Value})
	s.metrics.EventDispatched(EventSensorParam)
}

func (s *Session) handleIdentifyDevResponse(payload []byte) {
	var msg sensorOnOffResponse // identifyDevRes shares the devType/channel/address/value shape
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("decode identifyDevRes", slog.Any("error", err))
		return
	}
	devID := DeviceID(msg.DevType, msg.Channel, msg.Address, s.gw.GwSN)
	s.dispatch.complete(identifyWaiterKey(devID), msg.Value)
}
