// Package pipeline drives a dub job end to end: prepare inputs, synthesize
// and reconcile every segment, assemble the dub track, mix in the
// background bed, and mux the final container. Segment work runs on a
// bounded pool; everything after the pool joins runs once, in order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"dubforge/internal/assemble"
	"dubforge/internal/audio"
	"dubforge/internal/config"
	"dubforge/internal/diarization"
	"dubforge/internal/logging"
	"dubforge/internal/media/ffprobe"
	"dubforge/internal/mixdown"
	"dubforge/internal/mux"
	"dubforge/internal/queue"
	"dubforge/internal/reconcile"
	"dubforge/internal/services"
	"dubforge/internal/services/demucs"
	"dubforge/internal/subtitles"
	"dubforge/internal/synth"
	"dubforge/internal/textutil"
	"dubforge/internal/workspace"
)

// The dub canvas is mono; synthesized speech and the background bed are
// normalized to this layout before assembly.
const dubChannels = 1

// MediaTools covers the ffmpeg operations the pipeline composes.
type MediaTools interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string) error
	ExtractVideoOnly(ctx context.Context, videoPath, outputPath string) error
	ExtractOriginalAudio(ctx context.Context, videoPath, outputPath string) error
	NormalizeAudio(ctx context.Context, inputPath, outputPath string, sampleRate, channels int) error
}

// Prober inspects media containers.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// SegmentReconciler fits a synthesized clip into its timing window.
type SegmentReconciler interface {
	Reconcile(ctx context.Context, clip audio.Clip, window, nextStart float64) (reconcile.Result, error)
}

// ContainerMuxer produces and verifies the final container.
type ContainerMuxer interface {
	Mux(ctx context.Context, req mux.Request, progress mux.Progress) error
}

// Deps carries the capability-typed collaborators the pipeline needs.
// Every field except Separator is required; a nil Separator produces
// vocals-only dubs.
type Deps struct {
	Media       MediaTools
	Prober      Prober
	Synthesizer synth.Synthesizer
	Separator   demucs.Separator
	Reconciler  SegmentReconciler
	Muxer       ContainerMuxer
}

// Pipeline processes dub jobs.
type Pipeline struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	deps   Deps
}

// New constructs a pipeline.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: store required")
	}
	if deps.Media == nil || deps.Prober == nil || deps.Synthesizer == nil || deps.Reconciler == nil || deps.Muxer == nil {
		return nil, fmt.Errorf("pipeline: missing collaborator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, store: store, logger: logger, deps: deps}, nil
}

// segmentOutcome is one pre-allocated result slot, written exactly once by
// the worker that owns its index.
type segmentOutcome struct {
	rawPath   string
	speed     float64
	finalDur  float64
	finalPath string
	warning   string
	skipped   bool
}

// Process runs one job to completion. The job row is updated as stages
// advance; on failure the row carries the error and a failed or review
// status. The workspace is removed on every exit path.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) (err error) {
	logger := p.logger.With(logging.Int64(logging.FieldJobID, job.ID))

	ws, err := workspace.Acquire(p.cfg.Paths.WorkspaceDir, job.JobKey)
	if err != nil {
		p.markFailed(ctx, job, err)
		return err
	}
	defer func() {
		if releaseErr := ws.Release(); releaseErr != nil {
			logger.Warn("workspace cleanup failed",
				logging.Error(releaseErr),
				logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
				logging.String(logging.FieldImpact, "intermediate audio left on disk"),
			)
		}
	}()
	defer func() {
		if err != nil {
			p.markFailed(ctx, job, err)
		}
	}()

	prep, err := p.prepare(ctx, job, ws, logger)
	if err != nil {
		return err
	}

	merged, skipped, err := p.runSegmentPhase(ctx, job, ws, prep, logger)
	if err != nil {
		return err
	}

	// The document is saved once, after the pool joins.
	if err := diarization.Save(job.DiarizationPath, merged); err != nil {
		return services.Wrap(services.ErrValidation, "assembling", "save_document", "persist reconciled document", err)
	}

	if err := p.setStage(ctx, job, queue.StatusAssembling, 70, "assembling dub track"); err != nil {
		return err
	}
	canvas, err := assemble.BuildDubTrack(prep.duration, p.cfg.Dubbing.SampleRate, dubChannels, merged)
	if err != nil {
		return err
	}

	if err := p.setStage(ctx, job, queue.StatusMixing, 75, "mixing background bed"); err != nil {
		return err
	}
	dubbedPath := ws.Path("dubbed-audio.wav")
	if _, err := mixdown.New().Mix(canvas.Buffer(), prep.backgroundPath, dubbedPath); err != nil {
		return err
	}

	if err := p.setStage(ctx, job, queue.StatusMuxing, 80, "muxing output"); err != nil {
		return err
	}
	outputPath, err := p.runMux(ctx, job, ws, prep, merged, dubbedPath)
	if err != nil {
		return err
	}

	job.Status = queue.StatusCompleted
	job.OutputPath = outputPath
	job.ErrorMessage = ""
	job.SegmentsTotal = len(merged)
	job.SegmentsSkipped = skipped
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}
	if err := p.store.SetProgress(ctx, job.ID, 100, "completed"); err != nil {
		return err
	}
	logger.Info("job completed",
		logging.String("output", outputPath),
		logging.Int("segments", len(merged)),
		logging.Int("segments_skipped", skipped),
		logging.String(logging.FieldEventType, "job_completed"),
	)
	return nil
}

// preparation holds everything the segment phase and the tail of the
// pipeline need from the source media.
type preparation struct {
	duration       float64
	segments       []diarization.Segment
	backgroundPath string
}

func (p *Pipeline) prepare(ctx context.Context, job *queue.Job, ws *workspace.Workspace, logger *slog.Logger) (preparation, error) {
	if err := p.setStage(ctx, job, queue.StatusPreparing, 2, "probing source video"); err != nil {
		return preparation{}, err
	}

	probe, err := p.deps.Prober.Inspect(ctx, job.VideoPath)
	if err != nil {
		return preparation{}, services.Wrap(services.ErrInput, "preparing", "probe", "inspect source video", err)
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return preparation{}, services.Wrap(services.ErrInput, "preparing", "probe",
			fmt.Sprintf("source video %s reports no duration", job.VideoPath), nil)
	}
	if probe.AudioStreamCount() == 0 {
		return preparation{}, services.Wrap(services.ErrInput, "preparing", "probe",
			fmt.Sprintf("source video %s has no audio stream", job.VideoPath), nil)
	}

	segments, err := diarization.Load(job.DiarizationPath)
	if err != nil {
		return preparation{}, err
	}
	if len(segments) == 0 {
		return preparation{}, services.Wrap(services.ErrInput, "preparing", "load_document", "diarization document has no segments", nil)
	}

	sourceAudio := ws.Path("source-audio.wav")
	if err := p.deps.Media.ExtractAudio(ctx, job.VideoPath, sourceAudio); err != nil {
		return preparation{}, services.Wrap(services.ErrExternalTool, "preparing", "extract_audio", "extract source audio", err)
	}

	backgroundPath := ""
	if p.deps.Separator != nil {
		if err := p.setStage(ctx, job, queue.StatusPreparing, 8, "separating background audio"); err != nil {
			return preparation{}, err
		}
		stems, err := p.deps.Separator.Separate(ctx, sourceAudio, ws.Path("separation"))
		if err != nil {
			return preparation{}, services.Wrap(services.ErrExternalTool, "preparing", "separate", "source separation", err)
		}
		backgroundPath = ws.Path("background.wav")
		if err := p.deps.Media.NormalizeAudio(ctx, stems.Background, backgroundPath, p.cfg.Dubbing.SampleRate, dubChannels); err != nil {
			return preparation{}, services.Wrap(services.ErrExternalTool, "preparing", "normalize", "normalize background bed", err)
		}
	} else {
		logger.Info("no separator configured, dub will be vocals only",
			logging.String(logging.FieldStage, string(queue.StatusPreparing)),
			logging.String(logging.FieldEventType, "separation_skipped"),
		)
	}

	return preparation{duration: duration, segments: segments, backgroundPath: backgroundPath}, nil
}

// runSegmentPhase synthesizes and reconciles every segment on a bounded
// worker pool, then merges the outcomes into a new segment list. The g.Wait
// call is the barrier: no assembly starts until every slot is settled.
func (p *Pipeline) runSegmentPhase(ctx context.Context, job *queue.Job, ws *workspace.Workspace, prep preparation, logger *slog.Logger) ([]diarization.Segment, int, error) {
	if err := p.setStage(ctx, job, queue.StatusSynthesizing, 15, "synthesizing segments"); err != nil {
		return nil, 0, err
	}
	segmentsDir, err := ws.SegmentsDir()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrSynthesis, "synthesizing", "workspace", "create segments directory", err)
	}

	segments := prep.segments
	outcomes := make([]segmentOutcome, len(segments))

	workers := p.workerCount()
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))
	for i := range segments {
		i := i
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			nextStart := 0.0
			if i+1 < len(segments) {
				nextStart = segments[i+1].Start
			}
			outcome, err := p.processSegment(gctx, segmentsDir, segments[i], nextStart, logger)
			if err != nil {
				if !services.Recoverable(err) {
					return err
				}
				// Synthesis failures cost one segment, not the job: the
				// dub carries silence in its window.
				logger.Warn("segment synthesis failed, leaving silence",
					logging.Int(logging.FieldSegment, segments[i].Index),
					logging.String(logging.FieldSpeaker, segments[i].Speaker),
					logging.Error(err),
					logging.String(logging.FieldEventType, "segment_skipped"),
				)
				outcome = segmentOutcome{skipped: true, warning: err.Error()}
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	byIndex := make(map[int]segmentOutcome, len(segments))
	for i, segment := range segments {
		byIndex[segment.Index] = outcomes[i]
	}
	skipped := 0
	merged := diarization.Merge(segments, func(index int, segment *diarization.Segment) {
		outcome := byIndex[index]
		if outcome.skipped {
			segment.Skipped = true
			segment.Warning = outcome.warning
			skipped++
			return
		}
		speed := outcome.speed
		finalDur := outcome.finalDur
		segment.AudioPath = outcome.rawPath
		segment.Speed = &speed
		segment.FinalDuration = &finalDur
		segment.FinalAudioPath = outcome.finalPath
		segment.Warning = outcome.warning
	})
	return merged, skipped, nil
}

func (p *Pipeline) processSegment(ctx context.Context, segmentsDir string, segment diarization.Segment, nextStart float64, logger *slog.Logger) (segmentOutcome, error) {
	if strings.TrimSpace(segment.TranslatedText) == "" {
		logger.Warn("segment has no translated text, leaving silence",
			logging.Int(logging.FieldSegment, segment.Index),
			logging.String(logging.FieldSpeaker, segment.Speaker),
			logging.String(logging.FieldEventType, "segment_skipped"),
		)
		return segmentOutcome{skipped: true}, nil
	}

	rawPath := filepath.Join(segmentsDir, synth.SegmentFileName(segment.Index))
	if _, err := p.deps.Synthesizer.Synthesize(ctx, segment, rawPath); err != nil {
		return segmentOutcome{}, err
	}

	normPath := suffixPath(rawPath, "-norm")
	if err := p.deps.Media.NormalizeAudio(ctx, rawPath, normPath, p.cfg.Dubbing.SampleRate, dubChannels); err != nil {
		return segmentOutcome{}, services.Wrap(services.ErrExternalTool, "synthesizing", "normalize",
			fmt.Sprintf("normalize segment %d", segment.Index), err)
	}

	trimmed, err := p.trimClip(normPath, suffixPath(rawPath, "-trim"))
	if err != nil {
		return segmentOutcome{}, services.Wrap(services.ErrSynthesis, "synthesizing", "trim",
			fmt.Sprintf("trim segment %d", segment.Index), err)
	}

	result, err := p.deps.Reconciler.Reconcile(ctx, trimmed, segment.Window(), nextStart)
	if err != nil {
		return segmentOutcome{}, err
	}
	if result.Warning != "" {
		logger.Warn("segment timing clamped",
			logging.Int(logging.FieldSegment, segment.Index),
			logging.String(logging.FieldSpeaker, segment.Speaker),
			logging.Float64(logging.FieldSpeedFactor, result.Speed),
			logging.Float64(logging.FieldDurationSecs, result.FinalDuration),
			logging.String("warning", result.Warning),
			logging.String(logging.FieldEventType, "alignment_warning"),
		)
	}
	return segmentOutcome{
		rawPath:   rawPath,
		speed:     result.Speed,
		finalDur:  result.FinalDuration,
		finalPath: result.FinalPath,
		warning:   result.Warning,
	}, nil
}

// trimClip strips leading and trailing silence from the normalized clip.
func (p *Pipeline) trimClip(inputPath, outputPath string) (audio.Clip, error) {
	buf, err := audio.ReadFile(inputPath)
	if err != nil {
		return audio.Clip{}, err
	}
	trimmed := audio.TrimSilence(buf, p.cfg.Dubbing.SilenceThreshold)
	return audio.WriteFile(outputPath, trimmed)
}

func (p *Pipeline) runMux(ctx context.Context, job *queue.Job, ws *workspace.Workspace, prep preparation, merged []diarization.Segment, dubbedPath string) (string, error) {
	targetSRT := ws.Path("subtitles-target.srt")
	if err := subtitles.WriteFile(targetSRT, subtitles.FromSegments(merged, subtitles.TrackTranslated)); err != nil {
		return "", services.Wrap(services.ErrValidation, "muxing", "subtitles", "write target subtitles", err)
	}
	sourceSRT := ws.Path("subtitles-source.srt")
	if err := subtitles.WriteFile(sourceSRT, subtitles.FromSegments(merged, subtitles.TrackSource)); err != nil {
		return "", services.Wrap(services.ErrValidation, "muxing", "subtitles", "write source subtitles", err)
	}

	videoOnly := ws.Path("video-only.mp4")
	if err := p.deps.Media.ExtractVideoOnly(ctx, job.VideoPath, videoOnly); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "muxing", "extract_video", "extract video stream", err)
	}
	originalAudio := ws.Path("original-audio.m4a")
	if err := p.deps.Media.ExtractOriginalAudio(ctx, job.VideoPath, originalAudio); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "muxing", "extract_audio", "extract original audio", err)
	}

	outputPath := p.outputPath(job)
	req := mux.Request{
		VideoOnlyPath:      videoOnly,
		DubbedAudioPath:    dubbedPath,
		OriginalAudioPath:  originalAudio,
		TargetSubtitlePath: targetSRT,
		SourceSubtitlePath: sourceSRT,
		SourceLanguage:     job.SourceLanguage,
		TargetLanguage:     job.TargetLanguage,
		SourceDuration:     prep.duration,
		OutputPath:         outputPath,
	}
	progress := func(percent float64, message string) {
		// The mux spans the last fifth of overall progress.
		overall := 80 + int(percent*0.2)
		if overall > 99 {
			overall = 99
		}
		_ = p.store.SetProgress(ctx, job.ID, overall, message)
	}
	if err := p.deps.Muxer.Mux(ctx, req, progress); err != nil {
		return "", err
	}
	return outputPath, nil
}

// suffixPath inserts a suffix before the file extension.
func suffixPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func (p *Pipeline) outputPath(job *queue.Job) string {
	base := filepath.Base(job.VideoPath)
	name := textutil.SanitizeFileName(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = job.JobKey
	}
	return filepath.Join(p.cfg.Paths.OutputDir, name+"-dubbed.mp4")
}

func (p *Pipeline) workerCount() int {
	if p.cfg.Dubbing.Workers > 0 {
		return p.cfg.Dubbing.Workers
	}
	return runtime.NumCPU()
}

func (p *Pipeline) setStage(ctx context.Context, job *queue.Job, status queue.Status, percent int, message string) error {
	job.Status = status
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}
	if err := p.store.SetProgress(ctx, job.ID, percent, message); err != nil {
		return err
	}
	p.logger.Info("stage started",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(status)),
		logging.Int(logging.FieldProgress, percent),
		logging.String(logging.FieldEventType, "stage_started"),
	)
	return nil
}

// markFailed persists the failure on the job row. Input and validation
// defects land in review; everything else is failed.
func (p *Pipeline) markFailed(ctx context.Context, job *queue.Job, cause error) {
	job.Status = services.FailureStatus(cause)
	job.ErrorMessage = cause.Error()
	if err := p.store.Update(ctx, job); err != nil {
		p.logger.Error("failed to record job failure",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_update_failed"),
		)
	}
}
