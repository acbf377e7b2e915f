package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/triangle/engine"
	"github.com/spaghettifunk/triangle/engine/core"
)

func main() {
	cfg, err := core.LoadConfig("config.toml")
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogFatal("invalid log level: %s", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		core.LogFatal(err.Error())
	}
	appConfig, err := engine.NewApplicationConfig(cfg, wd)
	if err != nil {
		core.LogFatal(err.Error())
	}

	e := engine.New(appConfig)
	if err := e.Initialize(); err != nil {
		core.LogFatal("failed to initialize the engine: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("engine stopped: %s", runErr)
	}
}
