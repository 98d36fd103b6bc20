package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/internal/batch"
	"github.com/xifan2333/subcue/internal/config"
	"github.com/xifan2333/subcue/internal/pipeline"
	"github.com/xifan2333/subcue/pkgs/asr"
)

type transcribeFlags struct {
	provider       string
	workers        int
	wordTimestamps bool
	maxChars       int
	group          bool
	force          bool
}

func (f *transcribeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Speech service to use (bijian, jianying, elevenlabs)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of files transcribed concurrently")
	cmd.Flags().BoolVar(&f.wordTimestamps, "word-timestamps", false, "Emit one caption per recognized word")
	cmd.Flags().IntVar(&f.maxChars, "max-chars", 0, "Maximum characters per grouped caption line")
	cmd.Flags().BoolVar(&f.group, "group", false, "Group captions into lines even when the service returns sentences")
	cmd.Flags().BoolVar(&f.force, "force", false, "Transcribe files that already have captions")
}

// apply copies explicitly set flags onto cfg and re-validates it.
func (f *transcribeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Transcription.Provider = f.provider
	}
	if flags.Changed("workers") {
		cfg.Transcription.Workers = f.workers
	}
	if flags.Changed("word-timestamps") {
		cfg.Transcription.WordTimestamps = f.wordTimestamps
	}
	if flags.Changed("max-chars") {
		cfg.Transcription.MaxCharsPerLine = f.maxChars
	}
	if flags.Changed("group") {
		cfg.Transcription.GroupLines = f.group
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !slices.Contains(asr.List(), cfg.Transcription.Provider) {
		return fmt.Errorf("provider %q is not registered", cfg.Transcription.Provider)
	}
	return nil
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe [paths...]",
		Short: "Transcribe media files into caption JSON",
		Long: "Transcribe every media file under the given files or directories. " +
			"Files that already have a caption file next to them are skipped. " +
			"Without arguments the configured media directory is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			runCtx, err := ctx.runContext(cmd, "transcribe")
			if err != nil {
				return err
			}
			stopMetrics, err := ctx.startMetrics(runCtx)
			if err != nil {
				return err
			}
			defer stopMetrics()

			roots := args
			if len(roots) == 0 {
				roots = []string{cfg.Media.DefaultDir}
			}

			store, closeCache := ctx.openCache(runCtx)
			defer closeCache()

			transcriber := pipeline.NewTranscriber(cfg, ctx.toolchain(),
				pipeline.WithCache(store),
				pipeline.WithMetrics(ctx.metricsValue()),
			)
			runner := &batch.Runner{
				Transcriber: transcriber,
				Workers:     cfg.Transcription.Workers,
				IsMedia:     cfg.IsVideo,
				Force:       flags.force,
			}

			summary, discoverErr := runner.Run(runCtx, roots)
			out := cmd.OutOrStdout()
			if len(summary.Items) == 0 {
				fmt.Fprintln(out, "No media files found")
				return discoverErr
			}
			fmt.Fprintln(out, renderSummary(summary))
			if discoverErr != nil {
				return discoverErr
			}
			if failed := summary.Count(batch.StatusFailed); failed > 0 {
				return fmt.Errorf("%d of %d files failed: %w", failed, len(summary.Items), summary.Err())
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderSummary(summary *batch.Summary) string {
	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		detail := item.Output
		if item.Err != nil {
			detail = item.Err.Error()
		}
		captions := ""
		if item.Status == batch.StatusDone || item.Status == batch.StatusCached {
			captions = strconv.Itoa(item.Captions)
		}
		elapsed := ""
		if item.Elapsed > 0 {
			elapsed = item.Elapsed.Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{item.Media, string(item.Status), captions, elapsed, detail})
	}
	return renderTable(
		[]string{"Media", "Status", "Captions", "Elapsed", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
