package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newZonesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List the configured zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cfg.Zones))
			for i, z := range cfg.Zones {
				name := z.Name
				if i == cfg.DefaultZone {
					name += " *"
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					name,
					z.Model,
					z.Video,
					strconv.FormatFloat(z.AspectRatio, 'g', -1, 64),
					strconv.FormatFloat(z.AnimationSeconds, 'g', -1, 64),
					z.Cue,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "Model", "Video", "Aspect", "Animation (s)", "Cue"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "target %q, video backend %s, * default zone\n", cfg.TargetName, cfg.Video.Backend)
			return nil
		},
	}
}
