package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	dali "github.com/maginawin/go-dali-gateway"
)

// formatGateways renders discovered gateways as a table.
func formatGateways(w io.Writer, gateways []dali.GatewayDescriptor) error {
	if len(gateways) == 0 {
		fmt.Fprintln(w, "no gateways found")
		return nil
	}

	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tNAME\tIP\tPORT\tTLS\tCHANNELS")

	for _, gw := range gateways {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%v\n",
			gw.GwSN, gw.Name, gw.GwIP, gw.Port, gw.IsTLS, gw.ChannelTotal)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush tabwriter: %w", err)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
