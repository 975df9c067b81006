package encode

import (
	"context"

	"github.com/bft-labs/recut/pkg/media"
)

// Encoder turns frames into packets. Encoders may hold frames back for
// look-ahead; Flush returns whatever is still buffered. An Encoder is closed
// exactly once per render.
type Encoder interface {
	Encode(ctx context.Context, f media.Frame) ([]media.Packet, error)
	Flush(ctx context.Context) ([]media.Packet, error)
	Close() error
}
