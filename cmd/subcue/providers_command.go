package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/tts"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the registered speech services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, name := range asr.List() {
				rows = append(rows, []string{name, "transcription", yesNo(name == cfg.Transcription.Provider)})
			}
			for _, name := range tts.List() {
				rows = append(rows, []string{name, "synthesis", yesNo(name == cfg.Synthesis.Provider)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Provider", "Kind", "Default"}, rows, nil))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
