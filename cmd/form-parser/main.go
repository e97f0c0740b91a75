/*
Copyright 2026 The docrun Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The entry point for the batch form-parser job.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/docrun/form-parser/internal/config"
	"github.com/docrun/form-parser/internal/docai"
	"github.com/docrun/form-parser/internal/gcs"
	"github.com/docrun/form-parser/internal/metrics"
	"github.com/docrun/form-parser/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer klog.Flush()

	// load configuration & logging setup
	cfg := config.NewConfig()
	fs := flag.NewFlagSet("form-parser", flag.ExitOnError)

	cfgFilePath := fs.String("config", "", "Path to optional configuration overlay file")
	klog.InitFlags(fs)
	fs.Parse(os.Args[1:])

	cfg.LoadFromEnv()
	if *cfgFilePath != "" {
		if err := cfg.LoadFromYAML(*cfgFilePath); err != nil {
			klog.InfoS("Failed to load config file, using environment values", "path", *cfgFilePath, "err", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		klog.ErrorS(err, "Invalid configuration")
		return 1
	}

	logger := klog.Background().WithValues(
		"runID", uuid.NewString(),
		"taskIndex", cfg.TaskIndex,
		"taskAttempt", cfg.TaskAttempt,
	)

	// setup context with graceful shutdown
	ctx, cancel := context.WithCancel(klog.NewContext(context.Background(), logger))
	defer cancel()

	signalChan := make(chan os.Signal, 2)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signalChan
		logger.Info("Received shutdown signal, cancelling run...", "signal", sig)
		cancel()

		sig = <-signalChan
		logger.Info("Received second shutdown signal, forcing shutdown...", "signal", sig)
		os.Exit(1) // force exit immediately for second signal
	}()

	// optional metrics and health endpoints (background goroutine); a
	// one-shot job normally runs without them
	if cfg.MetricsAddress != "" {
		go func() {
			m := http.NewServeMux()

			m.Handle("/metrics", metrics.NewMetricsHandler())
			m.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info("Starting observability server", "address", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, m); err != nil {
				logger.Error(err, "Observability server failed")
			}
		}()
	}

	logger.Info("Starting batch form-parser task")

	processorClient, err := docai.NewClient(ctx, cfg.Location)
	if err != nil {
		logger.Error(err, "Failed to create document processor client")
		return 1
	}
	defer processorClient.Close()

	store, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Error(err, "Failed to create storage client")
		return 1
	}
	defer store.Close()

	p := pipeline.New(
		pipeline.Clients{Processor: processorClient, Store: store},
		docai.BatchRequest{
			ProjectID:   cfg.ProjectID,
			Location:    cfg.Location,
			ProcessorID: cfg.ProcessorID,
			InputPrefix: cfg.InputPrefix,
			OutputURI:   cfg.OutputPrefix,
			FieldMask:   cfg.FieldMask,
		},
		cfg.WaitTimeout,
		&pipeline.WriterSink{W: os.Stdout},
	)

	emitted, err := p.Run(ctx)
	if err != nil {
		logger.Error(err, "Batch form-parser task failed")
		return 1
	}

	logger.Info("Completed batch form-parser task", "documentsEmitted", emitted)
	return 0
}
