// Package templates renders the upload UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/sheetsections/internal/core"
	"github.com/JonMunkholm/sheetsections/internal/extract"
	"github.com/a-h/templ"
)

// htmxSrc is the pinned HTMX build loaded by the upload page.
const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// writer collects the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) rawf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

// UploadPage is the full upload page with the most recent extractions.
func UploadPage(recent []core.ExtractionSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>Sheet Sections</title>`)
		w.rawf(`<script src="%s"></script>`, htmxSrc)
		w.raw(`</head><body><main>`)
		w.raw(`<h1>Sheet Sections</h1>`)
		w.raw(`<p>Upload a spreadsheet exported as HTML. Rows up to each Total: row become one section.</p>`)
		w.raw(`<form hx-post="/api/upload" hx-encoding="multipart/form-data" hx-target="#result" hx-swap="innerHTML">`)
		w.raw(`<input type="file" name="file" accept=".html,.htm,text/html" required>`)
		w.raw(`<button type="submit">Extract</button>`)
		w.raw(`</form>`)
		w.raw(`<div id="result"></div>`)
		if w.err != nil {
			return w.err
		}
		if err := HistoryTable(recent).Render(ctx, out); err != nil {
			return err
		}
		w.raw(`</main></body></html>`)
		return w.err
	})
}

// HistoryTable lists extraction summaries, newest first.
func HistoryTable(recent []core.ExtractionSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section id="history"><h2>Recent extractions</h2>`)
		if len(recent) == 0 {
			w.raw(`<p>No extractions yet.</p></section>`)
			return w.err
		}
		w.raw(`<table><thead><tr><th>File</th><th>Sections</th><th>Products</th><th>Skipped</th><th>Discarded</th><th>When</th></tr></thead><tbody>`)
		for _, s := range recent {
			w.raw(`<tr><td><a href="/api/extractions/`)
			w.text(s.ID)
			w.raw(`">`)
			w.text(s.FileName)
			w.raw(`</a></td><td>`)
			w.raw(strconv.Itoa(s.SectionCount))
			w.raw(`</td><td>`)
			w.raw(strconv.Itoa(s.ProductCount))
			w.raw(`</td><td>`)
			w.raw(strconv.Itoa(s.SkippedRows))
			w.raw(`</td><td>`)
			w.raw(strconv.Itoa(s.DanglingRows))
			w.raw(`</td><td>`)
			w.text(s.CreatedAt.Format("2006-01-02 15:04:05"))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table></section>`)
		return w.err
	})
}

// SectionsPartial renders one extraction's sections for an HTMX swap.
func SectionsPartial(e *core.Extraction) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="extraction" data-extraction-id="`)
		w.text(e.ID)
		w.raw(`">`)
		w.rawf(`<p>%d sections, %d products from `, len(e.Sections), e.Stats.Products)
		w.text(e.FileName)
		w.raw(`</p>`)
		if e.Stats.Dangling > 0 {
			w.rawf(`<p class="warning">%d product rows after the last Total: row were discarded.</p>`, e.Stats.Dangling)
		}
		for _, sec := range e.Sections {
			writeSection(w, sec)
		}
		w.raw(`</div>`)
		return w.err
	})
}

func writeSection(w *writer, sec extract.Section) {
	w.raw(`<section><h3>`)
	name := sec.CategoryName
	if name == "" {
		name = "(unnamed)"
	}
	w.text(name)
	w.raw(`</h3>`)
	if len(sec.Products) == 0 {
		w.raw(`<p>No products.</p></section>`)
		return
	}
	w.raw(`<table><thead><tr><th>SKU</th><th>Name</th><th>Columns</th></tr></thead><tbody>`)
	for _, p := range sec.Products {
		w.raw(`<tr><td>`)
		w.text(p.SKU)
		w.raw(`</td><td>`)
		w.text(p.Name)
		w.raw(`</td><td>`)
		for i, c := range p.Columns {
			if i > 0 {
				w.raw(` | `)
			}
			w.text(c)
		}
		w.raw(`</td></tr>`)
	}
	w.raw(`</tbody></table></section>`)
}

// ErrorAlert is the HTMX error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert alert-error" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if action != "" {
			w.raw(`<p>`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`<small>Code: `)
		w.text(code)
		w.raw(`</small></div>`)
		return w.err
	})
}
