package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateVoices(); err != nil {
		return err
	}
	return c.validateDubbing()
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkspaceDir == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	if c.Tools.TimeoutSeconds <= 0 {
		return errors.New("tools.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateVoices() error {
	if c.Voices.Male.ID == "" {
		return errors.New("voices.male.id must be set")
	}
	if c.Voices.Female.ID == "" {
		return errors.New("voices.female.id must be set")
	}
	return nil
}

func (c *Config) validateDubbing() error {
	if c.Dubbing.SourceLanguage == "" || c.Dubbing.TargetLanguage == "" {
		return errors.New("dubbing.source_language and dubbing.target_language must be set")
	}
	if c.Dubbing.SourceLanguage == c.Dubbing.TargetLanguage {
		return errors.New("dubbing.target_language must differ from dubbing.source_language")
	}
	if c.Dubbing.Workers < 0 {
		return errors.New("dubbing.workers must not be negative")
	}
	if c.Dubbing.SampleRate < 8000 {
		return fmt.Errorf("dubbing.sample_rate %d is too low; 8000 Hz minimum", c.Dubbing.SampleRate)
	}
	if c.Dubbing.SilenceThreshold <= 0 || c.Dubbing.SilenceThreshold >= 1 {
		return errors.New("dubbing.silence_threshold must be between 0 and 1 exclusive")
	}
	return nil
}
