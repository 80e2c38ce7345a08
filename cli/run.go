package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/yardsim/config"
	"github.com/sarchlab/yardsim/manifest"
	"github.com/sarchlab/yardsim/simulation"
	"github.com/sarchlab/yardsim/verify"
)

type runOptions struct {
	configPath string
	envFile    string
	check      bool
	stats      bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run CONTAINERS [LOG]",
		Short: "Run the scheduler on a container file.",
		Long: "`run CONTAINERS [LOG]` feeds the containers to the scheduler " +
			"and writes the event log. Logs ending with .zst are compressed.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.Resolve(opts.configPath, opts.envFile)
			if err != nil {
				return err
			}

			overrideChanged(cmd, &resolved, cfg)

			if len(args) == 2 {
				resolved.Log.Path = args[1]
			}

			if err := resolved.Validate(); err != nil {
				return err
			}

			return runScheduler(cmd, args[0], resolved, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env", ".env", "file with YARDSIM_* variables")
	flags.BoolVar(&opts.check, "check", false, "replay the log after the run")
	flags.BoolVar(&opts.stats, "stats", false, "print a summary of the actions")
	flags.IntVar(&cfg.Width, "width", cfg.Width, "number of columns of the yard")
	flags.StringVar(&cfg.Log.Path, "log", cfg.Log.Path, "event log path")
	flags.BoolVarP(&cfg.Log.Verbose, "verbose", "v", false, "print every action")
	flags.BoolVar(&cfg.Recording.Enabled, "record", false,
		"mirror the event log into a database")
	flags.StringVar(&cfg.Recording.Name, "db", "",
		"name of the recording database, without the .sqlite3 suffix")
	flags.BoolVar(&cfg.Monitor.Enabled, "monitor", false, "serve a live view")
	flags.IntVar(&cfg.Monitor.Port, "monitor-port", 0, "port of the live view")
	flags.BoolVar(&cfg.Monitor.OpenBrowser, "open-browser", false,
		"open the live view in a browser")

	return cmd
}

// overrideChanged copies the flags set on the command line over the resolved
// configuration.
func overrideChanged(cmd *cobra.Command, dst *config.Config, flags config.Config) {
	changed := cmd.Flags().Changed

	if changed("width") {
		dst.Width = flags.Width
	}

	if changed("log") {
		dst.Log.Path = flags.Log.Path
	}

	if changed("verbose") {
		dst.Log.Verbose = flags.Log.Verbose
	}

	if changed("record") {
		dst.Recording.Enabled = flags.Recording.Enabled
	}

	if changed("db") {
		dst.Recording.Name = flags.Recording.Name
		dst.Recording.Enabled = true
	}

	if changed("monitor") {
		dst.Monitor.Enabled = flags.Monitor.Enabled
	}

	if changed("monitor-port") {
		dst.Monitor.Port = flags.Monitor.Port
	}

	if changed("open-browser") {
		dst.Monitor.OpenBrowser = flags.Monitor.OpenBrowser
	}
}

func runScheduler(
	cmd *cobra.Command,
	containersPath string,
	cfg config.Config,
	opts runOptions,
) error {
	containers, err := manifest.ReadFile(containersPath)
	if err != nil {
		return err
	}

	sim, err := simulation.MakeBuilder().
		WithConfig(cfg).
		WithLogWriter(cmd.ErrOrStderr()).
		Build()
	if err != nil {
		return err
	}

	err = sim.Run(containers)
	if err = errors.Join(err, sim.Terminate()); err != nil {
		return err
	}

	s := sim.Scheduler()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: cash %d at t=%d\n", cfg.Strategy.Name, s.Cash(), s.Now())

	if opts.stats {
		if err := sim.Counter().Report(out); err != nil {
			return err
		}
	}

	if opts.check {
		result, err := verify.CheckFiles(containersPath, cfg.Log.Path)
		if err != nil {
			return err
		}

		printResult(cmd, result)
	}

	return nil
}

func printResult(cmd *cobra.Command, r *verify.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s width %d: %d events, cash %d\n",
		r.Name, r.Width, r.Events, r.Cash)
}
