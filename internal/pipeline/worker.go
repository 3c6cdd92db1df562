package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pmctools/pmcharvest/internal/archive"
	"github.com/pmctools/pmcharvest/internal/article"
	"github.com/pmctools/pmcharvest/internal/export"
	"github.com/pmctools/pmcharvest/internal/fetch"
	"github.com/pmctools/pmcharvest/internal/jats"
	"github.com/pmctools/pmcharvest/internal/match"
	"github.com/pmctools/pmcharvest/internal/store"
)

// Worker processes a single harvest job: fetch, parse, package extraction,
// figure matching and export.
type Worker struct {
	client  *fetch.Client
	cache   *store.Store
	log     *slog.Logger
	dataDir string

	maxConcurrentProbe int
}

func NewWorker(client *fetch.Client, cache *store.Store, log *slog.Logger, dataDir string, maxProbe int) *Worker {
	if maxProbe <= 0 {
		maxProbe = 8
	}
	return &Worker{
		client:             client,
		cache:              cache,
		log:                log,
		dataDir:            dataDir,
		maxConcurrentProbe: maxProbe,
	}
}

// Process runs the full harvest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "pmcid", job.PMCID)

	// Phase 1: Fetch (cache first).
	job.SetStatus(StatusFetching, "fetching")
	src, err := w.articleXML(ctx, job.PMCID)
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "fetching")
		return
	}

	// Phase 2: Parse.
	job.SetStatus(StatusParsing, "parsing")
	doc, err := jats.Parse(src, job.PMCID)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTitle(doc.Title)
	if w.cache != nil {
		if err := w.cache.PutDocument(ctx, doc); err != nil {
			log.Warn("document cache write failed", "error", err)
		}
	}

	figures := doc.Figures()
	if len(figures) == 0 {
		job.SetCounts(len(doc.Sections), 0, 0)
		job.SetStatus(StatusCompleted, "done")
		log.Info("harvest complete", "sections", len(doc.Sections), "figures", 0)
		return
	}

	// Phase 3: OA package extraction.
	job.SetStatus(StatusExtracting, "extracting package")
	paths, err := w.extractPackage(ctx, job.PMCID)
	if err != nil {
		// A missing OA package is survivable: the document itself parsed.
		log.Warn("package extraction failed", "error", err)
		job.AddError(fmt.Sprintf("package: %s", err))
		job.SetCounts(len(doc.Sections), len(figures), 0)
		job.SetStatus(StatusPartial, "done")
		return
	}

	// Phase 4: Match.
	job.SetStatus(StatusMatching, "matching figures")
	matches := match.All(figures, paths, nil)
	job.SetCounts(len(doc.Sections), len(figures), len(matches))

	// Phase 5: Probe and export, bounded concurrency per job.
	job.SetStatus(StatusExporting, "exporting figures")
	exported, err := w.exportFigures(ctx, job.PMCID, matches)
	job.SetExported(exported)
	if err != nil {
		log.Error("figure export failed", "error", err)
		job.AddError(fmt.Sprintf("export: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("harvest complete",
		"sections", len(doc.Sections),
		"figures", len(figures),
		"matched", len(matches),
		"exported", exported,
	)
}

func (w *Worker) articleXML(ctx context.Context, pmcid string) (string, error) {
	if w.cache != nil {
		if src, ok, err := w.cache.XML(ctx, pmcid); err == nil && ok {
			return src, nil
		}
	}
	src, err := w.client.ArticleXML(ctx, pmcid)
	if err != nil {
		return "", err
	}
	if w.cache != nil {
		if err := w.cache.PutXML(ctx, pmcid, src); err != nil {
			w.log.Warn("xml cache write failed", "pmcid", pmcid, "error", err)
		}
	}
	return src, nil
}

func (w *Worker) extractPackage(ctx context.Context, pmcid string) ([]string, error) {
	pkgURL, err := w.client.PackageURL(ctx, pmcid)
	if err != nil {
		return nil, err
	}
	body, err := w.client.Package(ctx, pkgURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	destDir := filepath.Join(w.dataDir, pmcid, "package")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create package directory: %w", err)
	}
	return archive.ExtractTarGz(body, destDir)
}

// exportFigures probes matches concurrently, then writes files and sidecars.
func (w *Worker) exportFigures(ctx context.Context, pmcid string, matches []article.ExtractedFigure) (int, error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentProbe)
	for i := range matches {
		m := &matches[i]
		g.Go(func() error {
			export.Probe(m)
			return nil
		})
	}
	_ = g.Wait()

	outDir := filepath.Join(w.dataDir, pmcid, "figures")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create figures directory: %w", err)
	}

	exported := 0
	for _, m := range matches {
		if err := export.One(m, outDir); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}
