package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/yardsim/datarecording"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/manifest"
	"github.com/sarchlab/yardsim/tracing"
	"github.com/sarchlab/yardsim/verify"
)

type replaySource struct {
	db string
}

func (s *replaySource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.db, "db", "",
		"read the log from a recording database instead of a file")
}

func (s *replaySource) args() cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if s.db != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}

		return cobra.ExactArgs(2)(cmd, args)
	}
}

func (s *replaySource) replay(args []string, hooks ...hooking.Hook) (*verify.Result, error) {
	if s.db == "" {
		return verify.CheckFiles(args[0], args[1], hooks...)
	}

	containers, err := manifest.ReadFile(args[0])
	if err != nil {
		return nil, err
	}

	records, err := datarecording.ReadEvents(s.db)
	if err != nil {
		return nil, err
	}

	return verify.Replay(containers, records, hooks...)
}

func newCheckCmd() *cobra.Command {
	source := &replaySource{}
	verbose := false

	cmd := &cobra.Command{
		Use:   "check CONTAINERS LOG",
		Short: "Check that an event log is legal.",
		Long: "`check CONTAINERS LOG` replays the log on an empty yard and " +
			"fails at the first record that breaks a stacking rule or " +
			"disagrees with the cash ledger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var hooks []hooking.Hook
			if verbose {
				hooks = append(hooks,
					tracing.NewEventLogger(log.New(cmd.ErrOrStderr(), "", 0)))
			}

			result, err := source.replay(args, hooks...)
			if err != nil {
				return err
			}

			printResult(cmd, result)

			return nil
		},
	}

	cmd.Args = source.args()
	source.addFlags(cmd)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"print every replayed record")

	return cmd
}
