//go:build !linux

package netmcast

// setReusePort is a no-op on platforms where golang.org/x/sys/unix does not
// expose SO_REUSEPORT through this build's constants.
func setReusePort(_ int) error {
	return nil
}
