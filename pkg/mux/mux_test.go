package mux

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/recut/pkg/media"
)

var tb = media.NewRational(1, 10)

// countingTrack yields packets at the given pts and counts pulls.
type countingTrack struct {
	pts      []int64
	tb       media.Rational
	pos      int
	pulls    int
	held     []int64
	drains   int
	closed   bool
	closeErr error
	err      error
}

func track(tb media.Rational, pts ...int64) *countingTrack {
	return &countingTrack{pts: pts, tb: tb}
}

func (c *countingTrack) Next(ctx context.Context) (media.Packet, error) {
	c.pulls++
	if c.err != nil && c.pos == len(c.pts) {
		return media.Packet{}, c.err
	}
	if c.pos >= len(c.pts) {
		return media.Packet{}, io.EOF
	}
	p := media.Packet{PTS: c.pts[c.pos], TimeBase: c.tb}
	c.pos++
	return p, nil
}

func (c *countingTrack) Drain(context.Context) ([]media.Packet, error) {
	c.drains++
	var out []media.Packet
	for _, v := range c.held {
		out = append(out, media.Packet{PTS: v, TimeBase: c.tb})
	}
	c.held = nil
	return out, nil
}

func (c *countingTrack) Close() error {
	c.closed = true
	return c.closeErr
}

type merged struct {
	pts    []int64
	tracks []int
}

func collect(t *testing.T, m *Multiplexer) merged {
	t.Helper()
	var out merged
	for {
		p, err := m.Next(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out.pts = append(out.pts, p.PTS)
		out.tracks = append(out.tracks, p.Track)
	}
}

func iterators(tracks ...*countingTrack) []media.PacketIterator {
	out := make([]media.PacketIterator, len(tracks))
	for i, t := range tracks {
		out[i] = t
	}
	return out
}

func TestMultiplexer_MergesByPTS(t *testing.T) {
	m := New(iterators(
		track(tb, 0, 4, 8),
		track(tb, 1, 5, 9),
		track(tb, 2, 6, 10),
	))

	got := collect(t, m)
	assert.Equal(t, []int64{0, 1, 2, 4, 5, 6, 8, 9, 10}, got.pts)
	assert.Equal(t, StateStopped, m.State())
	assert.Equal(t, 9, m.Emitted())
}

func TestMultiplexer_TieBreaksByTrack(t *testing.T) {
	// 10 ticks of 1/20 equal 5 ticks of 1/10.
	m := New(iterators(
		track(tb, 5),
		track(tb, 5),
		track(media.NewRational(1, 20), 10),
	))

	for want := 0; want < 3; want++ {
		_, err := m.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, m.refill, "tie emitted out of track order")
	}
	_, err := m.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestMultiplexer_OrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bases := []media.Rational{media.NewRational(1, 10), media.NewRational(1, 25), media.NewRational(1, 1000)}

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(4)
		tracks := make([]*countingTrack, n)
		for i := range tracks {
			pts := make([]int64, rng.Intn(20))
			for j := range pts {
				pts[j] = int64(rng.Intn(100))
			}
			sort.Slice(pts, func(a, b int) bool { return pts[a] < pts[b] })
			tracks[i] = track(bases[rng.Intn(len(bases))], pts...)
		}
		m := New(iterators(tracks...))

		var prev *item
		count := 0
		for {
			p, err := m.Next(context.Background())
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			cur := item{pkt: p, track: m.refill}
			if prev != nil {
				c := media.ComparePTS(prev.pkt.PTS, prev.pkt.TimeBase, p.PTS, p.TimeBase)
				require.LessOrEqual(t, c, 0, "round %d: pts went backwards", round)
				if c == 0 {
					require.LessOrEqual(t, prev.track, cur.track, "round %d: tie not in track order", round)
				}
			}
			prev = &cur
			count++
		}
		total := 0
		for _, tr := range tracks {
			total += len(tr.pts)
		}
		assert.Equal(t, total, count)
	}
}

func TestMultiplexer_PullsLazily(t *testing.T) {
	a, b := track(tb, 0, 2, 4), track(tb, 1, 3, 5)
	m := New(iterators(a, b))

	_, err := m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, a.pulls)
	assert.Equal(t, 1, b.pulls)

	_, err = m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, a.pulls, "emitted track is refilled on the next call")
	assert.Equal(t, 1, b.pulls)
}

func TestMultiplexer_PauseResume(t *testing.T) {
	a := track(tb, 0, 1, 2, 3)
	m := New(iterators(a))

	p, err := m.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), p.PTS)

	require.True(t, m.Pause())
	assert.False(t, m.Pause(), "already paused")
	assert.Equal(t, StatePaused, m.State())

	done := make(chan media.Packet)
	go func() {
		p, err := m.Next(context.Background())
		if err == nil {
			done <- p
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Next returned while paused")
	case <-time.After(50 * time.Millisecond):
	}
	pullsWhilePaused := a.pulls

	require.True(t, m.Resume())
	select {
	case p := <-done:
		assert.Equal(t, int64(1), p.PTS, "resumes from the same point")
	case <-time.After(time.Second):
		t.Fatal("Next did not resume")
	}
	assert.Equal(t, 1, pullsWhilePaused)
}

func TestMultiplexer_PauseHonoursContext(t *testing.T) {
	m := New(iterators(track(tb, 0, 1)))
	_, err := m.Next(context.Background())
	require.NoError(t, err)
	m.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMultiplexer_CancelDrains(t *testing.T) {
	a := track(tb, 0, 10, 20, 30)
	b := track(tb, 1, 11, 21, 31)
	a.held = []int64{12}
	b.held = []int64{13}
	m := New(iterators(a, b))

	p, err := m.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), p.PTS)

	require.True(t, m.Pause())
	require.True(t, m.Cancel())

	got := collect(t, m)
	assert.Equal(t, []int64{1, 12, 13}, got.pts)
	assert.Equal(t, 1, a.drains)
	assert.Equal(t, 1, b.drains)
	assert.Equal(t, 1, a.pulls, "no pull after cancel")
	assert.Equal(t, StateStopped, m.State())
	assert.False(t, m.Resume())
}

func TestMultiplexer_TrackErrorIsSticky(t *testing.T) {
	boom := errors.New("encoder died")
	a := track(tb, 0)
	a.err = boom
	m := New(iterators(a, track(tb, 1, 2)))

	p, err := m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PTS)

	_, err = m.Next(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = m.Next(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMultiplexer_CloseJoinsErrors(t *testing.T) {
	a, b := track(tb), track(tb)
	a.closeErr = errors.New("a failed")
	m := New(iterators(a, b))

	err := m.Close()
	assert.ErrorIs(t, err, a.closeErr)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestTrackError(t *testing.T) {
	boom := errors.New("boom")
	a := track(tb)
	a.err = boom
	m := New(iterators(track(tb, 1), a))

	_, err := m.Next(context.Background())
	var te *TrackError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Track)
	assert.Equal(t, "next", te.Op)
	assert.ErrorIs(t, err, boom)
}
