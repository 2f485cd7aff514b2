package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"patternweb/playground/pkg/console"
	"patternweb/playground/pkg/source"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Label       string
	Source      source.PatternSource
	EngineReady bool
	Console     template.HTML
}

// handlePage serves the playground page. The first page load of the
// session resolves its gist or code deep link.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.controller.Mount(r.Context(), r.URL.Query())

	st := s.controller.State()
	var lines bytes.Buffer
	if err := console.NewHTMLSink(&lines).Write(st.Lines); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render console", "error", err)
	}

	data := pageData{
		Label:       st.Label,
		Source:      s.controller.Source(),
		EngineReady: st.EngineReady,
		// HTMLSink escapes every line.
		Console: template.HTML(lines.String()),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
