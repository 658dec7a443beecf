// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/gfx/vkr"
	"github.com/devblok/trinvk/platform"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	backend = flag.String("backend", platform.BackendSDL, "Window backend used to create the surface")
	indent  = flag.Bool("indent", true, "Indent the output")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)

	cfg := core.DefaultConfiguration()
	cfg.Window.Backend = *backend
	cfg.Window.Hidden = true
	cfg.Application.Name = "trininfo"
	cfg.Application.EnableValidationLayers = false

	window, err := platform.Open(cfg.Window)
	if err != nil {
		log.WithError(err).Fatal("window")
	}
	defer window.Destroy()

	driver, err := vkr.NewDriver(window.ProcAddr())
	if err != nil {
		log.WithError(err).Fatal("driver")
	}

	options, err := core.NewOptions(cfg, window)
	if err != nil {
		log.WithError(err).Fatal("options")
	}

	rep, err := inspect(driver, options)
	if err != nil {
		log.WithError(err).Fatal("inspect")
	}

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(rep, "", "  ")
	} else {
		bytes, err = json.Marshal(rep)
	}
	if err != nil {
		log.WithError(err).Fatal("json")
	}
	fmt.Printf("%s\n", bytes)
}
