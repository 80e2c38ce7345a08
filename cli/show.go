package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/yardsim/render"
	"github.com/sarchlab/yardsim/yard"
)

func newShowCmd() *cobra.Command {
	source := &replaySource{}
	height := render.DefaultHeight

	cmd := &cobra.Command{
		Use:   "show CONTAINERS LOG",
		Short: "Draw the yard after every record of an event log.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if height < 0 {
				return fmt.Errorf("%w: negative height %d",
					yard.ErrTypeMismatch, height)
			}

			frames := render.NewFrameWriter(cmd.OutOrStdout(), height)

			if _, err := source.replay(args, frames); err != nil {
				return err
			}

			return frames.Err()
		},
	}

	cmd.Args = source.args()
	source.addFlags(cmd)
	cmd.Flags().IntVar(&height, "height", height, "number of stack levels drawn")

	return cmd
}
