package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"dubforge/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <media>",
		Short: "Inspect a media file's streams with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve media path: %w", err)
			}

			client := ffprobe.New(cfg.Tools.FFprobe)
			result, err := client.Inspect(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "duration: %.3fs  streams: %d\n", result.DurationSeconds(), len(result.Streams))

			rows := make([][]string, 0, len(result.Streams))
			for _, stream := range result.Streams {
				def := ""
				if stream.IsDefault() {
					def = "default"
				}
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.CodecType,
					stream.CodecName,
					stream.Language(),
					def,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					{title: "#", numeric: true},
					{title: "Type"},
					{title: "Codec"},
					{title: "Language"},
					{title: "Disposition"},
				},
				rows,
			))
			return nil
		},
	}
}
