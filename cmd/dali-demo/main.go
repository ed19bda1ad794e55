// Command dali-demo is a minimal operator tool for the DALI gateway core:
// it can run discovery and print found gateways, or connect to a set of
// configured gateways and log every inbound event until interrupted.
package main

import (
	"github.com/maginawin/go-dali-gateway/cmd/dali-demo/commands"
)

func main() {
	commands.Execute()
}
