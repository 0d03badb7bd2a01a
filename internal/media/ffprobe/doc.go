// Package ffprobe wraps ffprobe invocations used to measure media duration
// before processing and to verify the stream layout of the muxed output.
package ffprobe
