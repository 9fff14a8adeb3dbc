// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/0x0BSoD/newsInsight/internal/config"
	"github.com/0x0BSoD/newsInsight/internal/dashboard"
	"github.com/0x0BSoD/newsInsight/internal/ingest"
	"github.com/0x0BSoD/newsInsight/internal/loader"
	"github.com/0x0BSoD/newsInsight/internal/logger"
	"github.com/0x0BSoD/newsInsight/internal/nlp"
	"github.com/0x0BSoD/newsInsight/internal/nlp/lexical"
	"github.com/0x0BSoD/newsInsight/internal/nlp/llm"
	"github.com/0x0BSoD/newsInsight/internal/nlp/tagger"
	"github.com/0x0BSoD/newsInsight/internal/server"
	"github.com/0x0BSoD/newsInsight/internal/storage"
	"github.com/0x0BSoD/newsInsight/internal/tracking"
)

type GlobalFlags struct {
	Config string `long:"config" description:"Path to an HCL config file (replaces the default lookup)"`
}

type MigrateCommand struct {
	Reset bool `long:"reset" description:"Drop all tables before creating them"`

	globals *GlobalFlags
}

type IngestCommand struct {
	Locations string `long:"locations" description:"CSV of domain locations (location, Country)"`
	Domains   string `long:"domains" description:"CSV of domains (SourceCommonName, location, Country)"`
	Traffic   string `long:"traffic" description:"CSV of traffic metrics"`
	Articles  string `long:"articles" description:"CSV of articles"`

	globals *GlobalFlags
}

type ServeCommand struct {
	Addr string `long:"addr" description:"Override the listen address"`

	globals *GlobalFlags
}

type TopicsCommand struct {
	Runs bool `long:"runs" description:"List recorded topic modeling runs instead of fitting a new model"`

	globals *GlobalFlags
}

func main() {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "newsinsight"
	parser.LongDescription = "Load news articles, sources and traffic metrics and serve analytics over them."

	parser.AddCommand("migrate", "Create the database schema", "Create the database schema, optionally dropping existing tables first.", &MigrateCommand{globals: &globals})
	parser.AddCommand("ingest", "Load CSV exports into the database", "Load locations, domains, traffic and articles CSV exports, in that order.", &IngestCommand{globals: &globals})
	parser.AddCommand("serve", "Serve the dashboard API", "Serve the dashboard aggregates as a JSON HTTP API.", &ServeCommand{globals: &globals})
	parser.AddCommand("topics", "Fit a topic model", "Fit a topic model over a sample of stored articles and record the run.", &TopicsCommand{globals: &globals})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

// app holds what every command needs: configuration, a logger and the pool.
type app struct {
	cfg config.Config
	log *logrus.Logger
	db  *sqlx.DB
}

func setup(ctx context.Context, globals *GlobalFlags) (*app, error) {
	cfg := config.Get()
	if globals.Config != "" {
		var err error
		if cfg, err = config.Load(globals.Config); err != nil {
			return nil, fmt.Errorf("load config %s: %w", globals.Config, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.WithError(err).Error("failed to connect to db")
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close db")
	}
}

func (a *app) dashboard() *dashboard.Service {
	entities, keywords := a.extractors()
	return dashboard.New(
		storage.New(a.db),
		entities,
		keywords,
		lexical.NewTopicFitter(a.cfg.TopicCount),
		tracking.NewFileStore(a.cfg.TrackingDir),
		dashboard.Config{
			PopularMaxRows:  a.cfg.PopularMaxRows,
			TopicSampleSize: a.cfg.TopicSampleSize,
		},
		a.log,
	)
}

func (a *app) extractors() (nlp.EntityExtractor, nlp.KeywordExtractor) {
	var client llm.Completer
	switch a.cfg.NLPBackend {
	case "openai":
		client = llm.NewOpenAIClient(a.cfg.AIBaseURL, a.cfg.AIKey, a.cfg.AIModel)
		a.log.WithField("model", a.cfg.AIModel).Info("using OpenAI-compatible extractor")
	case "ollama":
		client = llm.NewOllamaClient(a.cfg.AIBaseURL, a.cfg.AIModel)
		a.log.WithField("model", a.cfg.AIModel).Info("using Ollama extractor")
	case "lexical":
		ex := lexical.NewExtractor()
		return ex, ex
	default:
		a.log.Info("using prose entity tagger")
		return tagger.NewExtractor(), lexical.NewExtractor()
	}

	ex := llm.NewExtractor(client, a.cfg.AIRPS, a.cfg.AITimeout)
	return ex, ex
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (c *MigrateCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx, c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	if err := storage.CreateSchema(ctx, a.db, c.Reset); err != nil {
		a.log.WithError(err).Error("failed to create schema")
		return err
	}
	a.log.WithField("reset", c.Reset).Info("schema ready")
	return nil
}

func (c *IngestCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx, c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	if err := storage.CreateSchema(ctx, a.db, false); err != nil {
		a.log.WithError(err).Error("failed to create schema")
		return err
	}

	st := storage.New(a.db)
	svc := ingest.New(loader.New(), st.DomainStorage, st.TrafficStorage, st.ArticleStorage, a.log)

	err = svc.Run(ctx, ingest.Files{
		Locations: c.Locations,
		Domains:   c.Domains,
		Traffic:   c.Traffic,
		Articles:  c.Articles,
	})
	if err != nil {
		a.log.WithError(err).Error("ingest failed")
		return err
	}
	return nil
}

func (c *ServeCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx, c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.HTTPAddr
	if c.Addr != "" {
		addr = c.Addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.dashboard(), a.log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Warn("http server shutdown")
		}
	}()

	a.log.WithField("addr", addr).Info("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.WithError(err).Error("failed to run http server")
		return err
	}

	a.log.Info("http server stopped")
	return nil
}

func (c *TopicsCommand) Execute([]string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx, c.globals)
	if err != nil {
		return err
	}
	defer a.close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	if c.Runs {
		runs, err := tracking.NewFileStore(a.cfg.TrackingDir).Runs(dashboard.TopicExperiment)
		if err != nil {
			a.log.WithError(err).Error("failed to list runs")
			return err
		}
		fmt.Fprintln(w, "RUN\tSTATUS\tSTARTED\tDIR")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.RunID, r.Status, r.StartTime.Format(time.RFC3339), r.Dir)
		}
		return w.Flush()
	}

	res, err := a.dashboard().Topics(ctx)
	if err != nil {
		a.log.WithError(err).Error("topic modeling failed")
		return err
	}

	fmt.Fprintln(w, "TOPIC\tCOUNT\tNAME\tWORDS")
	for _, t := range res.Topics {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", t.ID, t.Count, t.Name, strings.Join(t.Words, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("run %s recorded in %s\n", res.RunID, res.Dir)
	return nil
}
