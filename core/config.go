// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/devblok/trinvk/gfx"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Environment variables that override the configuration.
const (
	EnvAppName        = "TRIN_APP_NAME"
	EnvAppVersion     = "TRIN_APP_VERSION"
	EnvValidation     = "TRIN_VALIDATION"
	EnvWindowBackend  = "TRIN_WINDOW_BACKEND"
	EnvShaderDir      = "TRIN_SHADER_DIR"
	EnvFenceTimeoutMs = "TRIN_FENCE_TIMEOUT_MS"
	EnvLogLevel       = "TRIN_LOG_LEVEL"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Application ApplicationConfiguration `toml:"application"`
	Window      WindowConfiguration      `toml:"window"`
	Renderer    RendererConfiguration    `toml:"renderer"`
	Time        TimeConfiguration        `toml:"time"`
	LogLevel    string                   `toml:"log_level"`
}

// ApplicationConfiguration describes the application to the driver
type ApplicationConfiguration struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`

	// EnableValidationLayers loads the validation layers and installs
	// the debug messenger
	EnableValidationLayers bool     `toml:"enable_validation_layers"`
	ValidationLayers       []string `toml:"validation_layers"`
}

// WindowConfiguration is used to configure the window
type WindowConfiguration struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`

	// Backend is either "sdl" or "glfw"
	Backend string `toml:"backend"`

	// Hidden windows are only used to query surface support
	Hidden bool `toml:"hidden"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string `toml:"device_extensions"`

	// FenceTimeout in milliseconds, a frame waiting longer is reported as a hang
	FenceTimeout int `toml:"fence_timeout_ms"`

	ClearColor [4]float32 `toml:"clear_color"`

	// Shaders are read from the archive when set, from the directory otherwise
	ShaderDirectory string `toml:"shader_directory"`
	ShaderArchive   string `toml:"shader_archive"`
	ShaderWatch     bool   `toml:"shader_watch"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"frames_per_second"`

	// EventPollDelay in milliseconds
	EventPollDelay int `toml:"event_poll_delay_ms"`
}

// DefaultConfiguration returns the engine defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		Application: ApplicationConfiguration{
			Name:                   "TrinVK Engine",
			Version:                "1.0.0",
			EnableValidationLayers: true,
			ValidationLayers:       []string{KhronosValidationLayer},
		},
		Window: WindowConfiguration{
			Title:   "TrinVK Engine",
			Width:   800,
			Height:  600,
			Backend: "sdl",
		},
		Renderer: RendererConfiguration{
			FenceTimeout:    5000,
			ClearColor:      [4]float32{0.05, 0.05, 0.05, 1},
			ShaderDirectory: "./shaders",
		},
		Time: TimeConfiguration{
			FramesPerSecond: 2000,
			EventPollDelay:  50,
		},
		LogLevel: "info",
	}
}

// LoadConfiguration reads the configuration from a TOML file on top of
// the defaults, then applies the env file and the environment.
// Empty paths are skipped.
func LoadConfiguration(path, envFile string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "core.LoadConfiguration()")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "core.LoadConfiguration(%s)", path)
		}
	}

	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnvironment(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnvFile sets the variables of a dotenv file, existing ones are overridden.
func LoadEnvFile(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return errors.Wrapf(err, "godotenv.Read(%s)", path)
	}
	for k, v := range vars {
		envy.Set(k, v)
	}
	return nil
}

// ApplyEnvironment overrides the configuration with TRIN_ variables.
func (c *Configuration) ApplyEnvironment() error {
	c.Application.Name = envy.Get(EnvAppName, c.Application.Name)
	c.Application.Version = envy.Get(EnvAppVersion, c.Application.Version)
	c.Window.Backend = strings.ToLower(envy.Get(EnvWindowBackend, c.Window.Backend))
	c.Renderer.ShaderDirectory = envy.Get(EnvShaderDir, c.Renderer.ShaderDirectory)
	c.LogLevel = envy.Get(EnvLogLevel, c.LogLevel)

	if v, err := envy.MustGet(EnvValidation); err == nil {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvValidation)
		}
		c.Application.EnableValidationLayers = enabled
	}

	if v, err := envy.MustGet(EnvFenceTimeoutMs); err == nil {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvFenceTimeoutMs)
		}
		c.Renderer.FenceTimeout = ms
	}
	return nil
}

// Validate checks the values that can not be used as they are.
func (c Configuration) Validate() error {
	if _, err := ParseVersion(c.Application.Version); err != nil {
		return err
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Window.Backend {
	case "sdl", "glfw":
	default:
		return errors.Errorf("unknown window backend %q", c.Window.Backend)
	}
	if c.Renderer.FenceTimeout <= 0 {
		return errors.Errorf("fence timeout %dms", c.Renderer.FenceTimeout)
	}
	return nil
}

// ParseVersion parses a semantic version into a three part version.
// Pre-release and build metadata are dropped.
func ParseVersion(s string) (gfx.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return gfx.Version{}, errors.Wrapf(err, "version %q", s)
	}
	return gfx.Version{
		Major: uint32(v.Major()),
		Minor: uint32(v.Minor()),
		Patch: uint32(v.Patch()),
	}, nil
}
