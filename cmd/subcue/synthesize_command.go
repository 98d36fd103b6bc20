package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/internal/pipeline"
	"github.com/xifan2333/subcue/pkgs/tts"
)

func newSynthesizeCommand(ctx *commandContext) *cobra.Command {
	var voice string
	var model string

	cmd := &cobra.Command{
		Use:   "synthesize <captions.json> [out.wav]",
		Short: "Voice a caption file and rebuild its timing around the audio",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("voice") {
				cfg.Synthesis.Voice = voice
			}
			if cmd.Flags().Changed("model") {
				cfg.Synthesis.Model = model
			}
			if err := cfg.RequireSynthesisKey(); err != nil {
				return err
			}
			if !slices.Contains(tts.List(), cfg.Synthesis.Provider) {
				return fmt.Errorf("synthesis provider %q is not registered", cfg.Synthesis.Provider)
			}

			runCtx, err := ctx.runContext(cmd, "synthesize")
			if err != nil {
				return err
			}
			stopMetrics, err := ctx.startMetrics(runCtx)
			if err != nil {
				return err
			}
			defer stopMetrics()

			outPath := ""
			if len(args) > 1 {
				outPath = args[1]
			}
			synth := pipeline.NewSynthesizer(cfg, ctx.toolchain(), pipeline.WithSynthesisMetrics(ctx.metricsValue()))
			result, err := synth.Synthesize(runCtx, args[0], outPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio:    %s (%s)\n", result.Audio, formatMs(result.TotalMs))
			fmt.Fprintf(out, "Captions: %s\n", result.Captions)
			fmt.Fprintf(out, "Segments: %d synthesized, %d skipped\n", result.Segments, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice preset (e.g. Ethan, Cherry)")
	cmd.Flags().StringVar(&model, "model", "", "Synthesis model")
	return cmd
}
