// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command wardend runs the process supervisor as a standalone daemon: it
// loads a YAML config describing the services to keep running, brings up
// the active ones, and serves the operator REST API until terminated.
package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/factorykit/warden"
	"github.com/factorykit/warden/rest"
)

var (
	cfgPath string
	listen  string
)

func main() {
	root := &cobra.Command{
		Use:          "wardend",
		Short:        "Supervise the deployment server's external processes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.Flags().StringVarP(&cfgPath, "config", "c", "wardend.yaml",
		"daemon config file")
	root.Flags().StringVarP(&listen, "listen", "a", "",
		"listen address, overrides the config")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          cfg.Name,
	})

	// Everything the supervisor logs is fanned out to stderr and to the
	// in-memory ring served over /log.
	ring := warden.NewLog()
	mlog := warden.NewMultiLogger()
	mlog.AddLogger(stdlog.New(ring, "", 0))
	mlog.AddLogger(logger.StandardLog())
	sink := mlog.Sink()

	reg := warden.DefaultRegistry()
	for name := range cfg.Services {
		reg.Register(warden.ExecKind(name))
	}

	doc, err := cfg.servicesDocument()
	if err != nil {
		return err
	}
	if err := reg.ValidateServiceConfig(doc); err != nil {
		return err
	}

	var boot []*warden.Future
	for name, sc := range cfg.Services {
		ctrl, err := reg.LoadServiceModule(name)
		if err != nil {
			return err
		}
		ctrl.SetLogger(stdlog.New(mlog, "["+name+"] ", 0))
		ctrl.SetLogSink(sink)
		ctrl.SetEnabled(sc.Active)
		if !sc.Active {
			logger.Info("service disabled", "service", name)
			continue
		}
		configs, err := warden.ConfigsFromManifests(sc.Processes)
		if err != nil {
			return err
		}
		logger.Info("starting service", "service", name,
			"processes", len(configs))
		boot = append(boot, ctrl.Start(configs))
	}
	for _, f := range boot {
		if err := f.Wait(context.Background()); err != nil {
			// A broken service must not take the daemon down; the
			// operator can inspect and redeploy it over the API.
			logger.Error("service failed to start", "error", err)
		}
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: rest.NewHandler(reg, ring),
	}
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Fatal("http server failed", "error", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-sigs

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(),
		warden.StopKillTimeout+5*time.Second)
	defer cancel()
	if err := reg.StopAll(ctx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	srv.Shutdown(ctx)
	return nil
}
