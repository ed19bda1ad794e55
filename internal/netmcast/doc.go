// Package netmcast provides the raw socket plumbing for the gateway
// discovery multicast transport: joining the discovery multicast group on
// every usable interface, sending datagrams to it, and listening for
// replies on a fallback port range.
//
// It uses golang.org/x/net/ipv4 for multicast group membership and
// golang.org/x/sys/unix for the handful of socket options ipv4.PacketConn
// does not expose (SO_REUSEPORT, SO_REUSEADDR).
package netmcast
