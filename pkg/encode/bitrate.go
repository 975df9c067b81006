package encode

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrBitrateTooLow is returned when the audio and container overhead alone
// exceed the size budget.
var ErrBitrateTooLow = errors.New("encode: target size leaves no room for video")

// TargetBitrate returns the video bitrate in bits per second that makes a
// file of the given duration come out at sizeBytes. overhead is the fraction
// of the file taken by the container, in [0, 1); audioBitrate is the
// combined bitrate of all audio tracks.
func TargetBitrate(sizeBytes int64, duration time.Duration, audioBitrate int64, overhead float64) (int64, error) {
	if sizeBytes <= 0 {
		return 0, fmt.Errorf("encode: target size %d must be positive", sizeBytes)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("encode: duration %s must be positive", duration)
	}
	if overhead < 0 || overhead >= 1 {
		return 0, fmt.Errorf("encode: overhead %g outside [0, 1)", overhead)
	}
	if audioBitrate < 0 {
		return 0, fmt.Errorf("encode: audio bitrate %d must not be negative", audioBitrate)
	}
	payloadBits := float64(sizeBytes) * 8 * (1 - overhead)
	total := int64(math.Round(payloadBits / duration.Seconds()))
	video := total - audioBitrate
	if video <= 0 {
		return 0, fmt.Errorf("%w: %d bit/s total, %d bit/s audio", ErrBitrateTooLow, total, audioBitrate)
	}
	return video, nil
}
