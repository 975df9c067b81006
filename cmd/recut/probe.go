package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bft-labs/recut/internal/adapters/fs"
	"github.com/bft-labs/recut/pkg/media"
)

func newProbeCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "probe <dir>",
		Short: "Inspect a rendered packet log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := fs.OpenPacketLog(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			s, err := probe(cmd, r, verbose)
			if err != nil {
				return err
			}
			s.print(cmd.OutOrStdout())
			if s.outOfOrder > 0 {
				return fmt.Errorf("%d packet(s) out of presentation order", s.outOfOrder)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every packet")
	return cmd
}

type trackSummary struct {
	packets   int
	keyframes int
	bytes     int
	first     media.Packet
	last      media.Packet
}

type probeSummary struct {
	tracks     map[int]*trackSummary
	order      []int
	outOfOrder int
}

func probe(cmd *cobra.Command, r *fs.PacketLogReader, verbose bool) (*probeSummary, error) {
	s := &probeSummary{tracks: map[int]*trackSummary{}}
	var prev *media.Packet
	for {
		p, err := r.Next(cmd.Context())
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		if prev != nil && p.Before(*prev) {
			s.outOfOrder++
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%s\t%.6f\t%t\t%d\n",
				p.Track, p.PTS, p.TimeBase, p.Seconds(), p.Keyframe, len(p.Data))
		}

		t, ok := s.tracks[p.Track]
		if !ok {
			t = &trackSummary{first: p}
			s.tracks[p.Track] = t
			s.order = append(s.order, p.Track)
		}
		t.packets++
		t.bytes += len(p.Data)
		if p.Keyframe {
			t.keyframes++
		}
		t.last = p
		prev = &p
	}
}

func (s *probeSummary) print(w io.Writer) {
	for _, idx := range s.order {
		t := s.tracks[idx]
		fmt.Fprintf(w, "track %d: %d packets, %d keyframes, %d bytes, %.3fs - %.3fs (%s)\n",
			idx, t.packets, t.keyframes, t.bytes, t.first.Seconds(), t.last.Seconds(), t.last.TimeBase)
	}
	if s.outOfOrder == 0 {
		fmt.Fprintln(w, "order: ok")
	} else {
		fmt.Fprintf(w, "order: %d out of order\n", s.outOfOrder)
	}
}
