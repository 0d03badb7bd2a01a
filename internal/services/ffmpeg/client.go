// Package ffmpeg wraps the ffmpeg CLI for the media transforms the dubbing
// pipeline needs: audio extraction, pitch-preserving time stretch, and the
// final mux invocation with progress reporting.
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs an ffmpeg client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExtractAudio pulls the audio track out of a video file as mono 16 kHz PCM,
// the layout speech separation and diarization tooling expect.
func (c *Client) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	if strings.TrimSpace(videoPath) == "" {
		return errors.New("video path required")
	}
	args := []string{
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}
	return c.run(ctx, args, nil)
}

// ExtractVideoOnly copies the video stream into a new container without any
// audio, used as the mux input so the original track can be re-attached at a
// controlled position.
func (c *Client) ExtractVideoOnly(ctx context.Context, videoPath, outputPath string) error {
	if strings.TrimSpace(videoPath) == "" {
		return errors.New("video path required")
	}
	args := []string{
		"-y", "-i", videoPath,
		"-an",
		"-c:v", "copy",
		outputPath,
	}
	return c.run(ctx, args, nil)
}

// ExtractOriginalAudio pulls the source soundtrack out as AAC so the muxer
// can attach it alongside the dub without re-reading the full container.
func (c *Client) ExtractOriginalAudio(ctx context.Context, videoPath, outputPath string) error {
	if strings.TrimSpace(videoPath) == "" {
		return errors.New("video path required")
	}
	args := []string{
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "aac",
		outputPath,
	}
	return c.run(ctx, args, nil)
}

// NormalizeAudio rewrites an audio clip at the given sample rate and channel
// count so every synthesized clip matches the dub canvas layout.
func (c *Client) NormalizeAudio(ctx context.Context, inputPath, outputPath string, sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("normalize audio: invalid layout %d Hz / %d ch", sampleRate, channels)
	}
	args := []string{
		"-y", "-i", inputPath,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		outputPath,
	}
	return c.run(ctx, args, nil)
}

// TimeStretch re-times an audio clip by the given speed factor while
// preserving pitch. A factor above 1 shortens the clip, below 1 lengthens
// it. The atempo filter accepts factors in [0.5, 2.0], which covers every
// factor the reconciler can produce.
func (c *Client) TimeStretch(ctx context.Context, inputPath, outputPath string, speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("time stretch: invalid speed factor %v", speed)
	}
	if speed < 0.5 || speed > 2.0 {
		return fmt.Errorf("time stretch: speed factor %v outside atempo range", speed)
	}
	args := []string{
		"-y", "-i", inputPath,
		"-filter:a", fmt.Sprintf("atempo=%s", strconv.FormatFloat(speed, 'f', -1, 64)),
		outputPath,
	}
	return c.run(ctx, args, nil)
}

// Run executes ffmpeg with caller-supplied arguments, forwarding each output
// line. Callers composing their own filter graphs (the muxer) use this with
// "-progress pipe:1" to observe out_time updates.
func (c *Client) Run(ctx context.Context, args []string, onLine func(string)) error {
	return c.run(ctx, args, onLine)
}

func (c *Client) run(ctx context.Context, args []string, onLine func(string)) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.exec.Run(runCtx, c.binary, args, onLine); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// ParseProgress extracts the processed media time from a "-progress pipe:1"
// output line. Lines that are not out_time updates report ok=false.
func ParseProgress(line string) (time.Duration, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "out_time_us="):
		value := strings.TrimPrefix(line, "out_time_us=")
		micros, err := strconv.ParseInt(value, 10, 64)
		if err != nil || micros < 0 {
			return 0, false
		}
		return time.Duration(micros) * time.Microsecond, true
	case strings.HasPrefix(line, "out_time="):
		return parseClock(strings.TrimPrefix(line, "out_time="))
	default:
		return 0, false
	}
}

func parseClock(value string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	seconds, errS := strconv.ParseFloat(parts[2], 64)
	if errH != nil || errM != nil || errS != nil {
		return 0, false
	}
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	total += time.Duration(seconds * float64(time.Second))
	return total, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onStdout != nil {
			onStdout(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
