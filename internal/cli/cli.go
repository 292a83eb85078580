// Package cli implements the gridcraft command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/buildinfo"
	"github.com/matzehuels/gridcraft/pkg/cache"
	"github.com/matzehuels/gridcraft/pkg/config"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/pipeline"
	"github.com/matzehuels/gridcraft/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = config.AppName

	// redisCachePrefix scopes artifact keys in a shared Redis.
	redisCachePrefix = "gridcraft:artifact:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag. Empty means the default location.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Gridcraft lays out rectangular cells on a grid",
		Long:         `Gridcraft is a grid layout editor. Draw cells by dragging on a grid, style them, reorder them, and export the result as an HTML fragment, an image or a stacking diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.stackCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() > lvl {
		c.Logger.SetLevel(lvl)
	}
	c.cfg = &cfg
	return cfg, nil
}

// designerOptions maps the configuration onto designer options.
func designerOptions(cfg config.Config) []designer.Option {
	return []designer.Option{
		designer.WithGrid(cfg.Grid.XCells, cfg.Grid.YCells),
		designer.WithPrompts(designer.Prompts{
			Font:            cfg.Prompts.Font,
			Text:            cfg.Prompts.Text,
			BackgroundImage: cfg.Prompts.BackgroundImage,
		}),
	}
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, appName+":"+buildinfo.Version+":")
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	if cfg.Cache.TTL.Duration > 0 {
		r.TTL = cfg.Cache.TTL.Duration
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		client := store.NewRedisClient(cfg.Store)
		if err := store.PingRedis(ctx, client); err != nil {
			client.Close()
			return nil, err
		}
		return cache.NewRedisCache(client, redisCachePrefix), nil
	}
	fc, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", cfg.Cache.Dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// openSessions opens the configured snapshot store and a document manager
// on top of it. The caller closes the returned store.
func (c *CLI) openSessions(ctx context.Context, cfg config.Config, opts ...designer.Option) (*session.Manager, store.Store, error) {
	var st store.Store
	err := spin(ctx, fmt.Sprintf("Opening %s store...", cfg.Store.Backend), func() error {
		var err error
		st, err = store.Open(ctx, cfg.Store)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	opts = append(designerOptions(cfg), opts...)
	return session.NewManager(st, c.Logger, opts...), st, nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readMarkup reads a markup file, or standard input for "-".
func readMarkup(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// outputPath derives an output path from the input when none is given.
func outputPath(output, input, ext string) string {
	if output != "" {
		return output
	}
	if input == "-" || input == "" {
		return "gridcraft." + ext
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + ext
}
