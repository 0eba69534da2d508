package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// TemplateWriter executes the user templates of the configuration in
// parallel and formats their output with goimports.
type TemplateWriter struct {
	graph   *Graph
	outDir  string
	workers int

	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics holds the generated output size.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// NewTemplateWriter creates a new template-based writer.
func NewTemplateWriter(g *Graph, outDir string) *TemplateWriter {
	return &TemplateWriter{
		graph:   g,
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel workers.
func (w *TemplateWriter) WithWorkers(n int) *TemplateWriter {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the generation metrics.
func (w *TemplateWriter) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// fileTask represents a single file generation task.
type fileTask struct {
	name string // output file path (relative to outDir)
	tmpl *Template
	data any
}

// GenerateAll executes all templates.
func (w *TemplateWriter) GenerateAll(ctx context.Context) error {
	var files []fileTask
	for _, tmpl := range w.graph.Templates {
		if tmpl.Format == nil {
			if tmpl.File == "" {
				return NewConfigError("Templates", tmpl.Name(), "graph template without output file")
			}
			files = append(files, fileTask{name: tmpl.File, tmpl: tmpl, data: w.graph})
			continue
		}
		for _, t := range w.graph.Nodes {
			if tmpl.Cond != nil && !tmpl.Cond(t) {
				continue
			}
			files = append(files, fileTask{name: tmpl.Format(t), tmpl: tmpl, data: t})
		}
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.generateFile(f)
			}
		})
	}
	return eg.Wait()
}

// generateFile generates a single file.
func (w *TemplateWriter) generateFile(f fileTask) error {
	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, f.data); err != nil {
		return NewGenerationError("template", f.name, "execute template "+f.tmpl.Name(), err)
	}
	fullPath := filepath.Join(w.outDir, f.name)
	// goimports removes unused imports and adds missing ones.
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output for debugging.
		debugPath := fullPath + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("template", f.name, "format (unformatted written to "+debugPath+")", err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return NewGenerationError("template", f.name, "create directory", err)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return NewGenerationError("template", f.name, "write", err)
	}
	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()
	return nil
}
