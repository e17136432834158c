package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hbomb79/Resonance/internal"
	"github.com/hbomb79/Resonance/pkg/logger"
	"github.com/spf13/cobra"
)

var log = logger.Get("Bootstrap")

type cliFlags struct {
	configPath  string
	outputDir   string
	visualize   bool
	sonify      bool
	concurrency int
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	cmd := &cobra.Command{
		Use:           "resonance [music-url]",
		Short:         "Submit a music analysis job and save the artifacts it produces",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := internal.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, config)
			if err := config.Validate(); err != nil {
				return err
			}
			logger.SetMinLoggingLevel(config.LogStatus().Level())

			musicURL := ""
			if len(args) == 1 {
				musicURL = args[0]
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			// Failures of the run itself are logged by Resonance and do not
			// affect the exit code.
			_, _ = internal.New(config).Run(ctx, musicURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML configuration file")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "directory to write artifacts in to")
	cmd.Flags().BoolVar(&flags.visualize, "visualize", true, "request a visualization of the analysis")
	cmd.Flags().BoolVar(&flags.sonify, "sonify", true, "request a sonification of the analysis")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "number of artifacts to decode concurrently")
	return cmd
}

// apply overrides the loaded configuration with any flags which were
// explicitly set on the command line.
func (flags *cliFlags) apply(cmd *cobra.Command, config *internal.ResonanceConfig) {
	if cmd.Flags().Changed("output") {
		config.OutputDir = flags.outputDir
	}
	if cmd.Flags().Changed("visualize") {
		config.Visualize = flags.visualize
	}
	if cmd.Flags().Changed("sonify") {
		config.Sonify = flags.sonify
	}
	if cmd.Flags().Changed("concurrency") {
		config.Concurrency = flags.concurrency
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command with the arguments given, returning the
// exit code for the process.
func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Emit(logger.FATAL, "Unhandled failure: %v\n", r)
			code = 1
		}
	}()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Emit(logger.FATAL, "%s\n", err)
		fmt.Fprintln(os.Stderr, "Run 'resonance --help' for usage.")
		return 1
	}

	return 0
}
