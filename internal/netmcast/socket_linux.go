//go:build linux

package netmcast

import "golang.org/x/sys/unix"

// setReusePort sets SO_REUSEPORT so multiple listener instances (e.g. a
// test process and a running daemon) can bind the same discovery port
// concurrently, matching the reference gateway's own listen-socket setup.
func setReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
