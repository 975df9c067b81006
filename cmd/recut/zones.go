package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bft-labs/recut/internal/adapters/synth"
	"github.com/bft-labs/recut/internal/cliconfig"
	"github.com/bft-labs/recut/pkg/project"
	"github.com/bft-labs/recut/pkg/timeline"
)

func newZonesCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "List the zones of every track",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, tracks, err := openProject(cmd, cfg, *cfgPath)
			if err != nil {
				return err
			}
			return printZones(cmd.OutOrStdout(), p, tracks)
		},
	}

	var (
		track int
		at    int
		spec  project.ZoneSpec
	)
	insert := &cobra.Command{
		Use:   "insert",
		Short: "Split a track at a predecessor frame and give the new zone a kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Start = at
			k, err := project.KindFromSpec(spec)
			if err != nil {
				return err
			}
			return editProject(cmd, cfg, *cfgPath, track, func(tl *timeline.Timeline) (*timeline.Edit, error) {
				return tl.InsertZoneAt(at, k)
			})
		},
	}
	f := insert.Flags()
	f.IntVar(&track, "track", 0, "track index")
	f.IntVar(&at, "at", 0, "predecessor frame the new zone starts at")
	f.StringVar(&spec.Kind, "kind", "passthrough", "zone kind: passthrough, trim, drop, freeze, scene, crossfade")
	f.IntVar(&spec.Head, "head", 0, "trim: frames dropped from the start")
	f.IntVar(&spec.Tail, "tail", 0, "trim: frames dropped from the end")
	f.IntSliceVar(&spec.Frames, "frames", nil, "drop: zone-local frames to drop")
	f.IntSliceVar(&spec.At, "freeze-at", nil, "freeze: zone-local frames to repeat")
	f.IntVar(&spec.Count, "count", 0, "freeze: copies inserted after each frame")
	f.IntVar(&spec.Limit, "limit", 0, "scene: keep only the first n frames")
	f.IntVar(&spec.Overlap, "overlap", 0, "crossfade: frames dissolved")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Merge the zone starting at a predecessor frame into the zone before it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, cfg, *cfgPath, track, func(tl *timeline.Timeline) (*timeline.Edit, error) {
				return tl.RemoveZoneAt(at)
			})
		},
	}
	remove.Flags().IntVar(&track, "track", 0, "track index")
	remove.Flags().IntVar(&at, "at", 0, "predecessor frame the zone starts at")

	cmd.AddCommand(insert, remove)
	return cmd
}

func openProject(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) (*project.Project, []project.Track, error) {
	if err := loadConfig(cmd, cfg, cfgPath); err != nil {
		return nil, nil, err
	}
	if cfg.Project == "" {
		return nil, nil, fmt.Errorf("project is required")
	}
	p, err := project.NewFileRepository(cfg.Project).Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	tracks, err := project.Build(timeline.NewRegistry(), p, synth.Open)
	if err != nil {
		return nil, nil, err
	}
	return p, tracks, nil
}

// editProject applies edit to one track and saves the project.
func editProject(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string, track int, edit func(*timeline.Timeline) (*timeline.Edit, error)) error {
	p, tracks, err := openProject(cmd, cfg, cfgPath)
	if err != nil {
		return err
	}
	if track < 0 || track >= len(tracks) {
		return fmt.Errorf("track %d out of range [0, %d)", track, len(tracks))
	}
	e, err := edit(tracks[track].Timeline)
	if err != nil {
		return err
	}
	if err := project.Capture(p, tracks); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := project.NewFileRepository(cfg.Project).Save(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "zone %d: predecessor [%d, %d) output [%d, %d)\n",
		e.Zone, e.PrevStart, e.PrevEnd, e.DestStart, e.DestEnd)
	return nil
}

func printZones(w io.Writer, p *project.Project, tracks []project.Track) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range tracks {
		tl := t.Timeline
		fmt.Fprintf(tw, "track %d %q: %d frames, %.3fs\n", i, t.Spec.Name, tl.FrameCount(), tl.TimeBase().Seconds(tl.Duration()))
		fmt.Fprintln(tw, "  ZONE\tKIND\tPREDECESSOR\tOUTPUT\tFRAMES")
		for _, z := range tl.Zones() {
			fmt.Fprintf(tw, "  %d\t%s\t[%d, %d)\t[%d, %d)\t%d\n",
				z.ID, z.Kind.Name(), z.PrevStart, z.PrevEnd, z.DestStart, z.DestEnd, z.FrameCount())
		}
	}
	return tw.Flush()
}
