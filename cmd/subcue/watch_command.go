package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/internal/batch"
	"github.com/xifan2333/subcue/internal/pipeline"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags
	var settle time.Duration
	var initial bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Transcribe media files as they appear in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			runCtx, err := ctx.runContext(cmd, "watch")
			if err != nil {
				return err
			}
			stopMetrics, err := ctx.startMetrics(runCtx)
			if err != nil {
				return err
			}
			defer stopMetrics()

			dir := cfg.Media.DefaultDir
			if len(args) > 0 {
				dir = args[0]
			}

			store, closeCache := ctx.openCache(runCtx)
			defer closeCache()

			runner := &batch.Runner{
				Transcriber: pipeline.NewTranscriber(cfg, ctx.toolchain(),
					pipeline.WithCache(store),
					pipeline.WithMetrics(ctx.metricsValue()),
				),
				Workers: cfg.Transcription.Workers,
				IsMedia: cfg.IsVideo,
				Force:   flags.force,
			}

			out := cmd.OutOrStdout()
			report := func(item batch.Item) {
				if item.Err != nil {
					fmt.Fprintf(out, "%-7s %s: %v\n", item.Status, item.Media, item.Err)
					return
				}
				fmt.Fprintf(out, "%-7s %s\n", item.Status, item.Media)
			}
			if initial {
				summary, err := runner.Run(runCtx, []string{dir})
				if err != nil {
					return err
				}
				for _, item := range summary.Items {
					report(item)
				}
			}
			return runner.Watch(runCtx, dir, settle, report)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&settle, "settle", batch.DefaultSettle, "Time a new file must stay unchanged before it is transcribed")
	cmd.Flags().BoolVar(&initial, "initial", true, "Transcribe existing media before watching")
	return cmd
}
