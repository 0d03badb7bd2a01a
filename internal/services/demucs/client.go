// Package demucs wraps the Demucs source-separation CLI used to split the
// original soundtrack into vocals and background stems.
package demucs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Stems holds the paths Demucs produced for a single input file.
type Stems struct {
	Vocals     string
	Background string
}

// Separator defines the behaviour the pipeline requires from a
// source-separation backend.
type Separator interface {
	Separate(ctx context.Context, audioPath, workDir string) (Stems, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
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

// WithModel overrides the Demucs model name used to locate output stems.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// Client wraps Demucs CLI interactions.
type Client struct {
	binary  string
	model   string
	timeout time.Duration
	exec    Executor
}

// New constructs a Demucs client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("demucs binary required")
	}
	client := &Client{
		binary:  binary,
		model:   "htdemucs",
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Separate runs two-stem separation on audioPath, writing model output under
// workDir. It returns the vocals and background stem paths.
func (c *Client) Separate(ctx context.Context, audioPath, workDir string) (Stems, error) {
	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return Stems{}, errors.New("audio path required")
	}
	if workDir == "" {
		return Stems{}, errors.New("work directory required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Stems{}, fmt.Errorf("create separation directory: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--two-stems=vocals", "-n", c.model, "-o", workDir, audioPath}
	if err := c.exec.Run(runCtx, c.binary, args); err != nil {
		return Stems{}, fmt.Errorf("demucs separate: %w", err)
	}

	stems := c.stemPaths(audioPath, workDir)
	for _, path := range []string{stems.Vocals, stems.Background} {
		if _, err := os.Stat(path); err != nil {
			return Stems{}, fmt.Errorf("demucs produced no stem at %s: %w", path, err)
		}
	}
	return stems, nil
}

// stemPaths reports where Demucs places its output: <out>/<model>/<track>/.
func (c *Client) stemPaths(audioPath, workDir string) Stems {
	base := filepath.Base(audioPath)
	track := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Join(workDir, c.model, track)
	return Stems{
		Vocals:     filepath.Join(dir, "vocals.wav"),
		Background: filepath.Join(dir, "no_vocals.wav"),
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed != "" {
			return fmt.Errorf("%w: %s", err, lastLine(trimmed))
		}
		return err
	}
	return nil
}

func lastLine(output string) string {
	lines := strings.Split(output, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
