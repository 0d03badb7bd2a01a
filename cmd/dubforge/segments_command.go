package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"dubforge/internal/diarization"
	"dubforge/internal/subtitles"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments <diarization.json>",
		Short: "Show the segments of a diarization document",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve document path: %w", err)
			}
			segments, err := diarization.Load(path)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(segments))
			for _, segment := range segments {
				rows = append(rows, []string{
					strconv.Itoa(segment.Index),
					subtitles.FormatTimestamp(segment.Start),
					subtitles.FormatTimestamp(segment.End),
					segment.Speaker,
					string(segment.Gender),
					speedCell(segment.Speed),
					durationCell(segment.FinalDuration),
					segmentState(segment),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{title: "#", numeric: true},
					{title: "Start"},
					{title: "End"},
					{title: "Speaker"},
					{title: "Gender"},
					{title: "Speed", numeric: true},
					{title: "Final", numeric: true},
					{title: "State"},
				},
				rows,
			))
			return nil
		},
	}
	return cmd
}

func segmentState(segment diarization.Segment) string {
	switch {
	case segment.Skipped:
		return "skipped"
	case segment.Warning != "":
		return "clamped"
	case segment.Reconciled():
		return "reconciled"
	default:
		return "pending"
	}
}
