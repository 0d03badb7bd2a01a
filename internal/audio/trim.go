package audio

// TrimSilence strips leading and trailing samples whose magnitude stays
// below threshold (linear, 0..1 of full scale). Internal pauses are left
// untouched. If trimming would remove everything, the original buffer is
// returned unchanged.
func TrimSilence(buf *Buffer, threshold float64) *Buffer {
	if buf == nil || len(buf.Data) == 0 || buf.Channels <= 0 {
		return buf
	}
	floor := int(threshold * float64(maxSample))

	frames := buf.Frames()
	first := -1
	last := -1
	for frame := 0; frame < frames; frame++ {
		if frameAudible(buf, frame, floor) {
			first = frame
			break
		}
	}
	if first == -1 {
		// Entirely below threshold; trimming would yield nothing.
		return buf
	}
	for frame := frames - 1; frame >= first; frame-- {
		if frameAudible(buf, frame, floor) {
			last = frame
			break
		}
	}

	trimmed := buf.Data[first*buf.Channels : (last+1)*buf.Channels]
	data := make([]int, len(trimmed))
	copy(data, trimmed)
	return &Buffer{Data: data, SampleRate: buf.SampleRate, Channels: buf.Channels}
}

func frameAudible(buf *Buffer, frame, floor int) bool {
	base := frame * buf.Channels
	for ch := 0; ch < buf.Channels; ch++ {
		sample := buf.Data[base+ch]
		if sample < 0 {
			sample = -sample
		}
		if sample > floor {
			return true
		}
	}
	return false
}
