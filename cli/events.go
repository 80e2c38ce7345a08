package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/yardsim/datarecording"
)

func newEventsCmd() *cobra.Command {
	info := false

	cmd := &cobra.Command{
		Use:   "events DATABASE",
		Short: "Print the event log stored in a recording database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if info {
				properties, err := datarecording.ReadExecInfo(args[0])
				if err != nil {
					return err
				}

				for _, p := range properties {
					fmt.Fprintf(out, "# %s: %s\n", p.Property, p.Value)
				}
			}

			records, err := datarecording.ReadEvents(args[0])
			if err != nil {
				return err
			}

			for _, r := range records {
				fmt.Fprintln(out, r)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&info, "info", false,
		"also print the execution information")

	return cmd
}
