// ABOUTME: Lists the playback and capture endpoints miniaudio can see
// ABOUTME: Helps pick IDs for output.device, mic.device and loopback.device
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vmic-audio/vmic-go/pkg/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long:  "List playback and capture endpoints with the IDs accepted by the device settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices(cmd.OutOrStdout(), device.NewMalgoEnumerator())
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func listDevices(w io.Writer, enum device.Enumerator) error {
	for _, kind := range []device.Kind{device.Playback, device.Capture} {
		endpoints, err := enum.Endpoints(kind)
		if err != nil {
			return fmt.Errorf("failed to list %s devices: %w", kind, err)
		}
		fmt.Fprintf(w, "%s:\n", kind)
		if len(endpoints) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, ep := range endpoints {
			fmt.Fprintf(w, "  %s\n", ep)
		}
	}
	return nil
}
