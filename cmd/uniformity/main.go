// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// uniformity serves a live light uniformity analysis of a camera.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/maruel/go-uniformity/config"
	"github.com/maruel/go-uniformity/pipeline"
	"github.com/maruel/go-uniformity/source"
	"github.com/maruel/interrupt"
)

var errBinaryChanged = errors.New("binary changed")

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	configPath := flag.String("config", config.DefaultPath(), "config file")
	writeConfig := flag.Bool("writeConfig", false, "write the effective config file and exit")
	port := flag.Int("port", -1, "http port to listen on, overrides the config")
	kind := flag.String("source", "", "synthetic, lepton or dir, overrides the config")
	dir := flag.String("dir", "", "directory to watch with -source dir")
	gridWidth := flag.Int("grid", 0, "grid columns, overrides the config")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port >= 0 {
		cfg.Port = *port
	}
	if *kind != "" {
		cfg.Source = *kind
	}
	if *dir != "" {
		cfg.Dir = *dir
	}
	if *gridWidth != 0 {
		cfg.GridWidth = *gridWidth
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *writeConfig {
		return cfg.Write(*configPath)
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		cancel()
	}()

	src, err := source.Open(cfg.SourceOptions())
	if err != nil {
		return err
	}
	defer src.Close()
	latest := pipeline.NewLatest()
	r, err := pipeline.NewRunner(src, cfg.Uniformity(), latest, cfg.PipelineOptions())
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           loggingHandler{newWebServer(latest, r)},
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Printf("Listening on %d\n", ln.Addr().(*net.TCPAddr).Port)
	go srv.Serve(ln)

	runDone := make(chan error, 1)
	go func() {
		runDone <- r.Run(ctx)
	}()
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- watchFile(ctx)
	}()

	restarting := false
	var runErr error
	running := true
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case <-t.C:
			fmt.Printf("\r%s   ", r.Stats())
		case err := <-runDone:
			running = false
			runDone = nil
			switch {
			case err == nil:
				log.Printf("source exhausted, serving the last result")
			case ctx.Err() == nil:
				runErr = err
				cancel()
			}
		case err := <-watchDone:
			watchDone = nil
			if errors.Is(err, errBinaryChanged) {
				restarting = true
				cancel()
			} else if err != nil {
				log.Printf("watch: %v", err)
			}
		}
	}
	fmt.Print("\n")
	if running {
		if err := <-runDone; err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}
	latest.Close()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if runErr != nil {
		return runErr
	}
	if restarting {
		src.Close()
		return restart()
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nuniformity: %s.\n", err)
		os.Exit(1)
	}
}
