// Package dali is the client-side core of a control library for SR DALI
// gateways. It discovers gateways on the local network, maintains an MQTT
// session with each one, coalesces outbound device commands into batched
// publishes, correlates request/response exchanges, and fans out inbound
// status messages to registered listeners.
//
// Device, Group and Scene domain wrappers that a host application builds on
// top of this core are out of scope beyond the minimal Group helper in
// group.go, kept only to exercise the write-group path end to end.
package dali
