package recut

import (
	"context"

	"github.com/bft-labs/recut/pkg/log"
	"github.com/bft-labs/recut/pkg/project"
)

// Plugin extends a Recut instance. Initialize is called by Start and
// Shutdown by Stop.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin gets to work with.
type PluginConfig struct {
	ProjectPath string
	OutputDir   string
	Logger      log.Logger

	// Reload validates p and, when it is sound, makes it the project of the
	// next render.
	Reload func(p *project.Project) error
}
