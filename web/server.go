// Package web serves the help-comparison UI over the harvested file
// tree: an index of versions and a compare view with per-topic
// highlighted line diffs.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"pghelp/diff"
	"pghelp/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server renders the version index and comparison pages.
type Server struct {
	store *store.Store
	tmpl  *template.Template
}

// NewServer creates a Server over a help-file store.
func NewServer(st *store.Store) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{store: st, tmpl: tmpl}, nil
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /compare", s.handleCompare)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("Serving help comparison UI.", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type indexPage struct {
	Versions []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.Versions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "index.html", indexPage{Versions: versions})
}

type lineView struct {
	Class string
	Text  string
}

type columnView struct {
	Version string
	Lines   []lineView
}

type topicView struct {
	Topic   string
	Columns []columnView
}

type comparePage struct {
	Versions []string
	Topics   []topicView
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	selected := r.Form["versions"]
	if len(selected) < 2 {
		http.Error(w, "Please select at least two versions for comparison.", http.StatusBadRequest)
		return
	}

	helpByVersion := make(map[string]map[string]string, len(selected))
	for _, v := range selected {
		topics, err := s.store.Topics(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("read help files for %s: %v", v, err), http.StatusInternalServerError)
			return
		}
		helpByVersion[v] = topics
	}

	cmp := diff.Compare(selected, helpByVersion)
	page := comparePage{Versions: selected}
	baseline := selected[0]
	last := selected[len(selected)-1]

	for _, topic := range cmp.Changed {
		texts := cmp.Texts[topic]
		tv := topicView{Topic: topic}

		for _, v := range selected {
			var lines []diff.Line
			if v == baseline {
				lines, _ = diff.SideBySide(texts[baseline], texts[last])
			} else {
				_, lines = diff.SideBySide(texts[baseline], texts[v])
			}
			tv.Columns = append(tv.Columns, columnView{
				Version: v,
				Lines:   toLineViews(lines),
			})
		}
		page.Topics = append(page.Topics, tv)
	}

	s.render(w, "compare.html", page)
}

func toLineViews(lines []diff.Line) []lineView {
	out := make([]lineView, 0, len(lines))
	for _, l := range lines {
		class := "unchanged"
		switch l.Kind {
		case diff.LineDeleted:
			class = "deleted"
		case diff.LineAdded:
			class = "added"
		}
		out = append(out, lineView{Class: class, Text: l.Text})
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Render failed.", "template", name, "err", err)
	}
}
