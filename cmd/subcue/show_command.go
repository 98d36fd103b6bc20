package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/pkgs/caption"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <media-or-captions>",
		Short: "Print the captions that belong to a media file",
		Long: "Print the captions next to a media file. A .json caption file is used as is; " +
			"otherwise a .srt file with the same name is parsed and grouped into lines.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			loaded, err := caption.Load(args[0], caption.Options{MaxCharsPerLine: cfg.Transcription.MaxCharsPerLine})
			if err != nil {
				return err
			}
			if loaded.Status == caption.NotFound {
				return fmt.Errorf("no captions found for %s", args[0])
			}

			rows := make([][]string, 0, len(loaded.Captions))
			for i, c := range loaded.Captions {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatMs(c.StartMs),
					formatMs(c.EndMs),
					c.Text,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %d captions)\n", loaded.Path, loaded.Format, len(loaded.Captions))
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
