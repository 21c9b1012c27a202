package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) limitsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Show the daemon's policy limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(client Client) error {
				limits, err := client.PolicyLimits(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(limits)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintf(w, "MaxRealtimePriority:\t%d\n", limits.MaxRealtimePriority)
				fmt.Fprintf(w, "MinNiceLevel:\t%d\n", limits.MinNiceLevel)
				fmt.Fprintf(w, "RTTimeUSecMax:\t%d\n", limits.RTTimeUSecMax)
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether rtkit-daemon is on the bus and its systemd unit state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.inspect(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "Bus name:\t%s\n", status.BusName)
			fmt.Fprintf(w, "Running:\t%v\n", status.Running)
			fmt.Fprintf(w, "Activatable:\t%v\n", status.Activatable)
			fmt.Fprintf(w, "Unit:\t%s\n", status.UnitName)
			fmt.Fprintf(w, "State:\t%s/%s (%s)\n", status.ActiveState, status.SubState, status.LoadState)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
