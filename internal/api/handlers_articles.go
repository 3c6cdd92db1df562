package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmctools/pmcharvest/internal/article"
	"github.com/pmctools/pmcharvest/internal/jats"
	"github.com/pmctools/pmcharvest/internal/render"
)

// handleParse parses a raw JATS document posted in the request body.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := jats.Parse(string(src), r.URL.Query().Get("pmcid"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// handleArticle fetches (or serves from cache) and parses one article.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadArticle(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleArticleMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadArticle(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, render.Markdown(doc))
}

func (s *Server) handleArticleHTML(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadArticle(w, r)
	if !ok {
		return
	}
	out, err := render.HTML(doc)
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// loadArticle resolves the document for {pmcid}: cached parse first, then
// cached XML, then a live fetch. Writes the error response itself on
// failure.
func (s *Server) loadArticle(w http.ResponseWriter, r *http.Request) (*article.Document, bool) {
	pmcid := chi.URLParam(r, "pmcid")
	if pmcid == "" {
		jsonError(w, "pmcid is required", http.StatusBadRequest)
		return nil, false
	}
	ctx := r.Context()

	if cache := s.orchestrator.Cache(); cache != nil {
		if doc, ok, err := cache.Document(ctx, pmcid); err == nil && ok {
			return doc, true
		}
	}

	src, err := s.articleXML(ctx, pmcid)
	if err != nil {
		jsonError(w, "fetch failed: "+err.Error(), http.StatusBadGateway)
		return nil, false
	}

	doc, err := jats.Parse(src, pmcid)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	if cache := s.orchestrator.Cache(); cache != nil {
		if err := cache.PutDocument(ctx, doc); err != nil {
			s.log.Warn("document cache write failed", "pmcid", pmcid, "error", err)
		}
	}
	return doc, true
}

func (s *Server) articleXML(ctx context.Context, pmcid string) (string, error) {
	if cache := s.orchestrator.Cache(); cache != nil {
		if src, ok, err := cache.XML(ctx, pmcid); err == nil && ok {
			return src, nil
		}
	}
	src, err := s.orchestrator.Client().ArticleXML(ctx, pmcid)
	if err != nil {
		return "", err
	}
	if cache := s.orchestrator.Cache(); cache != nil {
		if err := cache.PutXML(ctx, pmcid, src); err != nil {
			s.log.Warn("xml cache write failed", "pmcid", pmcid, "error", err)
		}
	}
	return src, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
