// Package config loads and validates the dubforge TOML configuration.
// Values fall back to repository defaults when the file is absent, so the
// CLI works out of the box with ffmpeg/ffprobe on PATH.
package config
