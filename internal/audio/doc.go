// Package audio provides the PCM primitives the dub pipeline is built on:
// WAV decode/encode, silence trimming, the full-length dub canvas, and the
// background mix. Clips are immutable references to on-disk artifacts; every
// transform writes a new file rather than mutating an existing one.
package audio
