package audio

// Clip references an on-disk audio artifact. Clips are immutable: stages
// that transform audio produce a new artifact and a new Clip.
type Clip struct {
	Path       string
	SampleRate int
	Channels   int
	// Duration in seconds.
	Duration float64
}
