package main

import (
	"errors"
	"testing"

	"dubforge/internal/services"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"input defect", services.Wrap(services.ErrInput, "preparing", "probe", "no such file", nil), exitBadInput},
		{"validation defect", services.Wrap(services.ErrValidation, "muxing", "mux", "bad request", nil), exitBadInput},
		{"tool failure", services.Wrap(services.ErrExternalTool, "muxing", "mux", "encoder crash", nil), exitFailure},
		{"plain error", errors.New("boom"), exitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCellRendering(t *testing.T) {
	speed := 1.3
	if got := speedCell(&speed); got != "1.30x" {
		t.Fatalf("speedCell = %q, want 1.30x", got)
	}
	if got := speedCell(nil); got != "-" {
		t.Fatalf("speedCell(nil) = %q, want -", got)
	}
	dur := 3.0
	if got := durationCell(&dur); got != "3.000s" {
		t.Fatalf("durationCell = %q, want 3.000s", got)
	}
	if got := durationCell(nil); got != "-" {
		t.Fatalf("durationCell(nil) = %q, want -", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]column{{title: "A"}, {title: "B", numeric: true}},
		[][]string{{"only-one-cell"}},
	)
	if out == "" {
		t.Fatal("expected rendered table")
	}
	if got := renderTable(nil, nil); got != "" {
		t.Fatalf("expected empty output for no columns, got %q", got)
	}
}
