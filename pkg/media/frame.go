package media

// MediaType distinguishes picture and sound streams.
type MediaType int

const (
	TypeUnknown MediaType = iota
	TypeVideo
	TypeAudio
)

// String returns a human-readable representation of the media type.
func (t MediaType) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// ParseMediaType accepts "video" or "audio".
func ParseMediaType(s string) MediaType {
	switch s {
	case "video":
		return TypeVideo
	case "audio":
		return TypeAudio
	default:
		return TypeUnknown
	}
}

// StreamInfo describes the shape of a frame sequence. Two sequences can only
// be joined when their StreamInfo is compatible.
type StreamInfo struct {
	Type MediaType

	// Video
	Width  int
	Height int

	// SampleAspect is the pixel aspect ratio. The zero value means square
	// pixels.
	SampleAspect Rational

	// Audio
	SampleRate int
	Channels   int

	TimeBase Rational
}

// PixelAspect returns SampleAspect, or 1/1 when it is unset.
func (i StreamInfo) PixelAspect() Rational {
	if !i.SampleAspect.Valid() {
		return Rational{Num: 1, Den: 1}
	}
	return i.SampleAspect
}

// Frame is one decoded unit of media. Frames are values: transforms return a
// new Frame and never mutate the payload of their input.
type Frame struct {
	// PTS is the presentation timestamp in TimeBase ticks.
	PTS int64

	// Duration is the display duration in TimeBase ticks.
	Duration int64

	TimeBase Rational

	// Keyframe marks a forced synchronization point for the encoder.
	Keyframe bool

	// SourceIndex is the frame's index in the sequence that produced it.
	SourceIndex int

	Info StreamInfo

	// Payload holds pixels or samples.
	Payload []byte
}

// Seconds returns the frame's presentation time in seconds.
func (f Frame) Seconds() float64 {
	return f.TimeBase.Seconds(f.PTS)
}
