package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/recut/internal/cliconfig"
)

const helpDescription = `
Edit and re-render timelines of decoded media frames.

A project file lists sources, output tracks and the zones edited into each
track (trims, scene splits, crossfades, freezes, drops). recut renders all
tracks into one container in presentation order.

Commands:
  render   render a project into a packet log or a timing listing
  zones    list, insert or remove zones of a project track
  probe    inspect a rendered packet log
`

var exampleUsage = strings.TrimSpace(`
  recut render --project edit.toml --output-dir out/
  recut render --project edit.toml --format timing --whence seconds --from 10 --to 20
  recut zones insert --project edit.toml --track 0 --at 120 --kind scene
  recut probe out/
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	if err := newRootCmd(&cfg).Execute(); err != nil {
		log := cliconfig.Logger(os.Stderr, cfg.LogLevel)
		log.Error().Err(err).Msg("recut")
		os.Exit(1)
	}
}

func newRootCmd(cfg *cliconfig.Config) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "recut",
		Short:         "Edit and re-render timelines of decoded media frames",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.recut/config.toml)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.Project, "project", cfg.Project, "project file")

	root.AddCommand(
		newRenderCmd(cfg, &cfgPath),
		newZonesCmd(cfg, &cfgPath),
		newProbeCmd(),
	)
	return root
}

// loadConfig layers the config file and RECUT_* environment under the flags
// set on cmd.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	// Environment overrides the file; flags override both.
	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func newLogger(cfg *cliconfig.Config) zerolog.Logger {
	return cliconfig.Logger(os.Stderr, cfg.LogLevel)
}
