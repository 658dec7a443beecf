// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/platform"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
	StaticShaders = packr.NewBox("./shaders")
}

//go:generate glslc -o shaders/triangle.vert.spv shaders/triangle.vert
//go:generate glslc -o shaders/triangle.frag.spv shaders/triangle.frag

// StaticShaders are the shaders built into the binary
var StaticShaders packr.Box

var (
	configPath = flag.String("config", "", "TOML configuration file")
	envFile    = flag.String("env", "", "dotenv file applied on top of the configuration")
	logLevel   = flag.String("loglevel", "", "Log level, overrides the configuration")
	backend    = flag.String("backend", "", "Window backend, sdl or glfw")
	noValidate = flag.Bool("novalidation", false, "Disable validation layers")
	embedded   = flag.Bool("embedded", false, "Use the shaders built into the binary")
	profile    = flag.String("pprof", "", "Serve profiling data on the address")
)

func main() {
	flag.Parse()

	cfg, err := loadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}
	setupLogging(cfg.LogLevel)

	if *profile != "" {
		go func() {
			log.WithError(http.ListenAndServe(*profile, nil)).Warn("pprof server stopped")
		}()
	}

	window, err := platform.Open(cfg.Window)
	if err != nil {
		fatal(nil, cfg.Window.Title, err)
	}

	if err := run(cfg, window); err != nil {
		fatal(window, cfg.Window.Title, err)
	}
	window.Destroy()
}

func loadConfiguration() (core.Configuration, error) {
	cfg, err := core.LoadConfiguration(*configPath, *envFile)
	if err != nil {
		return cfg, err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *backend != "" {
		cfg.Window.Backend = *backend
	}
	if *noValidate {
		cfg.Application.EnableValidationLayers = false
	}
	return cfg, cfg.Validate()
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// fatal reports err through the window when there is one and exits
func fatal(window platform.Window, title string, err error) {
	log.WithError(err).Error("fatal error")
	if window != nil {
		if derr := window.ShowError(title, err.Error()); derr != nil {
			log.WithError(derr).Warn("error dialog")
		}
		window.Destroy()
	}
	os.Exit(1)
}
