package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pmctools/pmcharvest/internal/config"
	"github.com/pmctools/pmcharvest/internal/fetch"
	"github.com/pmctools/pmcharvest/internal/pipeline"
	"github.com/pmctools/pmcharvest/internal/store"
)

// harvest is the batch CLI: it runs the full fetch/parse/match/export
// pipeline for a list of PMCIDs without going through the HTTP server.
func main() {
	godotenv.Load()

	var (
		idList   = flag.String("pmcids", "", "comma-separated PMCIDs to harvest")
		idFile   = flag.String("file", "", "file with one PMCID per line")
		parallel = flag.Int("parallel", 2, "number of articles harvested concurrently")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	pmcids, err := collectIDs(*idList, *idFile, flag.Args())
	if err != nil {
		log.Error("failed to read PMCID list", "error", err)
		os.Exit(1)
	}
	if len(pmcids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: harvest [-pmcids PMC123,PMC456] [-file ids.txt] [PMCID ...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cache, err := store.Open(ctx, cfg.CachePath)
	if err != nil {
		log.Error("failed to open cache", "path", cfg.CachePath, "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	client := fetch.NewClient(cfg.EFetchURL, cfg.OAURL, cfg.RequestInterval, log)
	worker := pipeline.NewWorker(client, cache, log, cfg.DataDir, cfg.MaxConcurrentProbe)

	if *parallel < 1 {
		*parallel = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)

	jobs := make([]*pipeline.Job, 0, len(pmcids))
	for _, pmcid := range pmcids {
		job := pipeline.NewJob(pmcid)
		jobs = append(jobs, job)
		g.Go(func() error {
			worker.Process(gctx, job)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, job := range jobs {
		snap := job.Snapshot()
		switch snap.Status {
		case pipeline.StatusCompleted:
			log.Info("harvested", "pmcid", snap.PMCID, "title", snap.Title,
				"figures", snap.Progress.FiguresTotal, "exported", snap.Progress.FiguresExported)
		case pipeline.StatusPartial:
			log.Warn("harvested with errors", "pmcid", snap.PMCID, "title", snap.Title,
				"errors", snap.Progress.Errors)
		default:
			failed++
			log.Error("harvest failed", "pmcid", snap.PMCID, "errors", snap.Progress.Errors)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func collectIDs(list, file string, args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, id := range strings.Split(list, ",") {
		add(id)
	}
	for _, id := range args {
		add(id)
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(data), "\n") {
			add(line)
		}
	}
	return out, nil
}
