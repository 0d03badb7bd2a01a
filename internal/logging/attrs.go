package logging

import (
	"log/slog"
	"time"
)

// Shared structured-field keys. Components use these instead of ad-hoc
// strings so log consumers can rely on stable names.
const (
	FieldComponent    = "component"
	FieldJobID        = "job_id"
	FieldStage        = "stage"
	FieldSegment      = "segment"
	FieldSpeaker      = "speaker"
	FieldEventType    = "event_type"
	FieldProgress     = "progress_percent"
	FieldErrorHint    = "error_hint"
	FieldImpact       = "impact"
	FieldAudioPath    = "audio_path"
	FieldSpeedFactor  = "speed_factor"
	FieldDurationSecs = "duration_seconds"
)

type Attr = slog.Attr

type Value = slog.Value

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Group(key string, attrs ...Attr) Attr {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group(key, args...)
}

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs to the variadic any form slog methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}
