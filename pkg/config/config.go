// Package config loads gridcraft settings from a TOML file.
//
// Every setting has a default, so a missing file is not an error when the
// default location is used. The file layout mirrors [Config]:
//
//	[grid]
//	x_cells = 50
//	y_cells = 20
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "720h"
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridcraft/pkg/errors"
)

// AppName is used for config, data and cache directories.
const AppName = "gridcraft"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Grid    Grid    `toml:"grid"`
	Server  Server  `toml:"server"`
	Store   Store   `toml:"store"`
	Cache   Cache   `toml:"cache"`
	Prompts Prompts `toml:"prompts"`
	Log     Log     `toml:"log"`
}

// Grid is the resolution of new documents.
type Grid struct {
	XCells     int     `toml:"x_cells"`
	YCells     int     `toml:"y_cells"`
	PixelRatio float64 `toml:"pixel_ratio"`
}

// Server configures `gridcraft serve`.
type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	// IdleTimeout closes live documents unused for this long. Zero keeps
	// them until they are deleted.
	IdleTimeout Duration `toml:"idle_timeout"`
}

// Store selects and configures the snapshot backend.
type Store struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`
}

// Prompts are the values offered when asking for cell attributes.
type Prompts struct {
	Font            string `toml:"font"`
	Text            string `toml:"text"`
	BackgroundImage string `toml:"background_image"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: Grid{XCells: 50, YCells: 20, PixelRatio: 1},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			IdleTimeout:  Duration{time.Hour},
		},
		Store: Store{
			Backend:       BackendFile,
			Dir:           filepath.Join(DataDir(), "snapshots"),
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
		},
		Cache: Cache{
			Backend: CacheFile,
			Dir:     CacheDir(),
			TTL:     Duration{24 * time.Hour},
		},
		Prompts: Prompts{
			Font:            `normal 2vw "Roboto", sans-serif`,
			Text:            "Hello, world!",
			BackgroundImage: "https://cdn.example.com/sample.jpg",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path means [DefaultPath], and
// a missing default file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	if err := errors.ValidateGrid(c.Grid.XCells, c.Grid.YCells); err != nil {
		return err
	}
	if c.Grid.PixelRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixel_ratio must not be negative")
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendMongo:
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown store backend %q", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/gridcraft/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// DataDir returns $XDG_DATA_HOME/gridcraft, defaulting to ~/.local/share/gridcraft.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// CacheDir returns $XDG_CACHE_HOME/gridcraft.
func CacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(dir, AppName)
}
