// GlucoLink Core
// Copyright (c) 2026 The GlucoLink Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GlucoLink Core.
//
// GlucoLink Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GlucoLink Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GlucoLink Core.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/GlucoLinkProject/glucolink-core/pkg/api"
	"github.com/GlucoLinkProject/glucolink-core/pkg/chart"
	"github.com/GlucoLinkProject/glucolink-core/pkg/config"
	"github.com/GlucoLinkProject/glucolink-core/pkg/database"
	"github.com/GlucoLinkProject/glucolink-core/pkg/device"
	"github.com/GlucoLinkProject/glucolink-core/pkg/glucose"
	"github.com/GlucoLinkProject/glucolink-core/pkg/helpers"
	"github.com/GlucoLinkProject/glucolink-core/pkg/service"
	"github.com/GlucoLinkProject/glucolink-core/pkg/share"
	"github.com/GlucoLinkProject/glucolink-core/pkg/transfer"
)

const appVersion = "2.1.0"

// Display dimensions of the target device.
const (
	displayWidth  = 144
	displayHeight = 168
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	daemonMode := flag.Bool("daemon", false, "run the bridge in the foreground")
	watchAddr := flag.String("watch", "", "run a watch simulator against a bridge at host:port")
	doPreview := flag.Bool("preview", false, "render the cached readings as a chart and exit")
	doVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *doVersion {
		fmt.Printf("glucolink v%s\n", appVersion)
		return nil
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var extraWriters []io.Writer
	if *daemonMode || *watchAddr != "" {
		extraWriters = append(extraWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(helpers.LogDir(), extraWriters); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	switch {
	case *watchAddr != "":
		return runWatch(*watchAddr)
	case *doPreview:
		return runPreview(cfg)
	default:
		return runBridge(cfg)
	}
}

// runBridge starts the sync actor and the device channel endpoint.
func runBridge(cfg *config.Instance) error {
	if err := os.MkdirAll(helpers.DataDir(), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := database.Open(filepath.Join(helpers.DataDir(), config.DBFile))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()

	creds, ok := config.LookupAuth(cfg.RemoteURL())
	if !ok {
		return fmt.Errorf("no credentials for %s in %s", cfg.RemoteURL(), config.AuthFile)
	}

	clock := clockwork.NewRealClock()
	client := share.NewClient(cfg.RemoteURL())
	session := share.NewSessionManager(client, share.Credentials{
		Username: creds.Username,
		Password: creds.Password,
	})
	fetcher := share.NewFetcher(client, session, clock, device.Capacity, cfg.Units())

	var svc *service.Service
	server := api.NewServer(cfg, func() api.Status {
		return svc.Status()
	})
	sender := transfer.NewSender(server.Channel(), clock)
	svc = service.New(cfg, db, session, fetcher, sender, clock, server.Requests())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return svc.Run(ctx) })

	log.Info().Str("version", appVersion).Msg("glucolink bridge started")
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bridge stopped: %w", err)
	}
	return nil
}

// runWatch connects a simulated watch to a bridge and prints the chart
// whenever a delivery cycle completes.
func runWatch(addr string) error {
	clock := clockwork.NewRealClock()
	renderer := chart.NewRenderer(clock)

	receiver := device.NewReceiver(func(readings []glucose.Reading, units string) {
		canvas := chart.NewRaster(displayWidth, displayHeight)
		renderer.Render(canvas, readings, units, false)
		fmt.Print(canvas.String())
		fmt.Println(device.StatusLine(readings, clock.Now()))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := device.NewClient(addr, api.APIPath, receiver)
	return client.Run(ctx)
}

// runPreview renders the persisted cache without touching the network.
func runPreview(cfg *config.Instance) error {
	db, err := database.Open(filepath.Join(helpers.DataDir(), config.DBFile))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()

	readings := db.LoadReadings()
	if len(readings) > device.Capacity {
		readings = readings[:device.Capacity]
	}

	clock := clockwork.NewRealClock()
	canvas := chart.NewRaster(displayWidth, displayHeight)
	chart.NewRenderer(clock).Render(canvas, readings, cfg.Units(), false)
	fmt.Print(canvas.String())
	fmt.Println(device.StatusLine(readings, clock.Now()))
	return nil
}
