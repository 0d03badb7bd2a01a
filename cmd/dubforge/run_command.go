package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dubforge/internal/config"
	"dubforge/internal/language"
	"dubforge/internal/logging"
	"dubforge/internal/media/ffprobe"
	"dubforge/internal/mux"
	"dubforge/internal/pipeline"
	"dubforge/internal/preflight"
	"dubforge/internal/queue"
	"dubforge/internal/reconcile"
	"dubforge/internal/services/demucs"
	ffmpegsvc "dubforge/internal/services/ffmpeg"
	"dubforge/internal/synth"
	"dubforge/internal/workspace"
)

const staleWorkspaceAge = 24 * time.Hour

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <video> <diarization.json>",
		Short: "Dub a video using its diarization document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			logger = logging.WithComponent(logger, "run")

			videoPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			documentPath, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve document path: %w", err)
			}

			if !skipPreflight {
				results := preflight.RunAll(cfg)
				if !preflight.Passed(results) {
					fmt.Fprintln(cmd.OutOrStdout(), renderPreflight(results))
					return fmt.Errorf("preflight checks failed")
				}
			}

			cleanup := workspace.CleanStale(cfg.Paths.WorkspaceDir, staleWorkspaceAge, logger)
			if len(cleanup.Removed) > 0 {
				logger.Info("cleaned stale workspaces", logging.Int("count", len(cleanup.Removed)))
			}

			deps, err := buildDeps(cfg)
			if err != nil {
				return err
			}

			source := sourceLang
			if source == "" {
				source = cfg.Dubbing.SourceLanguage
			}
			target := targetLang
			if target == "" {
				target = cfg.Dubbing.TargetLanguage
			}
			source, err = language.Normalize(source)
			if err != nil {
				return fmt.Errorf("source language: %w", err)
			}
			target, err = language.Normalize(target)
			if err != nil {
				return fmt.Errorf("target language: %w", err)
			}

			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.NewJob(cmd.Context(), uuid.NewString(), videoPath, documentPath, source, target)
				if err != nil {
					return fmt.Errorf("create job: %w", err)
				}
				p, err := pipeline.New(cfg, store, logger, deps)
				if err != nil {
					return err
				}
				if err := p.Process(cmd.Context(), job); err != nil {
					return err
				}

				final, err := store.GetByID(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				printRunSummary(cmd, final)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source", "", "Source language override (default from config)")
	cmd.Flags().StringVar(&targetLang, "target", "", "Target language override (default from config)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before running")
	return cmd
}

// buildDeps wires the real external-tool clients into pipeline collaborators.
func buildDeps(cfg *config.Config) (pipeline.Deps, error) {
	ffmpegClient, err := ffmpegsvc.New(cfg.Tools.FFmpeg, cfg.Tools.TimeoutSeconds)
	if err != nil {
		return pipeline.Deps{}, err
	}
	prober := ffprobe.New(cfg.Tools.FFprobe)
	synthesizer, err := synth.New(cfg.Tools.TTS, cfg.Voices, cfg.Tools.TimeoutSeconds)
	if err != nil {
		return pipeline.Deps{}, err
	}

	deps := pipeline.Deps{
		Media:       ffmpegClient,
		Prober:      prober,
		Synthesizer: synthesizer,
		Reconciler:  reconcile.New(ffmpegClient),
		Muxer:       mux.New(ffmpegClient, prober),
	}
	// Demucs is optional; without it the dub ships vocals only.
	if cfg.Tools.Demucs != "" {
		if _, lookErr := exec.LookPath(cfg.Tools.Demucs); lookErr == nil {
			separator, err := demucs.New(cfg.Tools.Demucs, cfg.Tools.TimeoutSeconds)
			if err != nil {
				return pipeline.Deps{}, err
			}
			deps.Separator = separator
		}
	}
	return deps, nil
}

func printRunSummary(cmd *cobra.Command, job *queue.Job) {
	out := cmd.OutOrStdout()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		rows := [][]string{
			{"Status", string(job.Status)},
			{"Output", job.OutputPath},
			{"Dub", fmt.Sprintf("%s from %s", language.DisplayName(job.TargetLanguage), language.DisplayName(job.SourceLanguage))},
			{"Segments", fmt.Sprintf("%d", job.SegmentsTotal)},
			{"Skipped", fmt.Sprintf("%d", job.SegmentsSkipped)},
		}
		fmt.Fprintln(out, renderTable([]column{{title: "Field"}, {title: "Value"}}, rows))
		return
	}
	fmt.Fprintf(out, "status=%s output=%s segments=%d skipped=%d\n",
		job.Status, job.OutputPath, job.SegmentsTotal, job.SegmentsSkipped)
}
