package config

const (
	defaultWorkspaceDir       = "~/.local/share/dubforge/workspace"
	defaultOutputDir          = "~/dubbed"
	defaultLogDir             = "~/.local/share/dubforge/logs"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultToolTimeoutSeconds = 3600
	defaultSourceLanguage     = "eng"
	defaultTargetLanguage     = "ben"
	defaultSampleRate         = 44100
	defaultSilenceThreshold   = 0.01
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultMaleVoiceID        = "vits-male"
	defaultFemaleVoiceID      = "vits-female"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:         defaultFFmpegBinary,
			FFprobe:        defaultFFprobeBinary,
			TimeoutSeconds: defaultToolTimeoutSeconds,
		},
		Voices: Voices{
			Male:   Voice{ID: defaultMaleVoiceID, Language: defaultTargetLanguage},
			Female: Voice{ID: defaultFemaleVoiceID, Language: defaultTargetLanguage},
		},
		Dubbing: Dubbing{
			SourceLanguage:   defaultSourceLanguage,
			TargetLanguage:   defaultTargetLanguage,
			SampleRate:       defaultSampleRate,
			SilenceThreshold: defaultSilenceThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
