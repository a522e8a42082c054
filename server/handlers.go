package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/export"
	"github.com/zalepa/infractions/pages"
	"github.com/zalepa/infractions/render"
	"github.com/zalepa/infractions/series"
)

type pageSummary struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Kind    series.Kind `json:"kind"`
	Status  string      `json:"status"`
	Origin  string      `json:"origin,omitempty"`
	Message string      `json:"message,omitempty"`
}

type pageDetail struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Kind       series.Kind      `json:"kind"`
	Categories []string         `json:"categories"`
	Controls   []series.Control `json:"controls"`
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"json": "application/json",
	"csv":  "text/csv; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func summarize(p pages.Page) pageSummary {
	d := p.Describe(p.State())
	sum := pageSummary{
		ID:     p.ID(),
		Title:  p.Title(),
		Kind:   p.Kind(),
		Status: "ok",
		Origin: string(d.Origin),
	}
	if _, failed := p.(*pages.ErrorPage); failed {
		sum.Status = "error"
		sum.Message = d.Message
	}
	return sum
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	all := s.pages.All()
	out := make([]pageSummary, 0, len(all))
	for _, p := range all {
		out = append(out, summarize(p))
	}
	respondWithJSON(w, http.StatusOK, out)
}

// page resolves the {id} parameter, writing a 404 when it names no page.
func (s *Server) page(w http.ResponseWriter, r *http.Request) (pages.Page, bool) {
	p, err := s.pages.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Page not found", err)
		return nil, false
	}
	return p, true
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	cats := p.Categories()
	if cats == nil {
		cats = []string{}
	}
	respondWithJSON(w, http.StatusOK, pageDetail{
		ID:         p.ID(),
		Title:      p.Title(),
		Kind:       p.Kind(),
		Categories: cats,
		Controls:   p.Controls(p.State()),
	})
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, p.Describe(pages.QueryState(p, r.URL.Query())))
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	if p.Kind() != series.Choropleth {
		respondWithError(w, http.StatusBadRequest, "Page is not a map", nil)
		return
	}
	fc := choropleth.Features(p.Describe(pages.QueryState(p, r.URL.Query())), s.bounds)
	var buf bytes.Buffer
	if err := choropleth.WriteGeoJSON(&buf, fc); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to encode map", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(buf.Bytes())
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	var buf bytes.Buffer
	err := render.Write(&buf, format, p.Describe(pages.QueryState(p, r.URL.Query())), s.bounds, s.size)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to render chart", err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(buf.Bytes())
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	var buf bytes.Buffer
	if err := export.Write(&buf, format, p, pages.QueryState(p, r.URL.Query())); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to export page", err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(p.ID(), format)+`"`)
	w.Write(buf.Bytes())
}

// reloadPage reads the page's dataset again and swaps the result in. Open
// sessions keep the page they were created with.
func (s *Server) reloadPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pages.Known(id) {
		respondWithError(w, http.StatusNotFound, "Page not found", pages.ErrUnknownPage)
		return
	}
	p, err := pages.Load(r.Context(), id, s.sources)
	if p == nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to reload page", err)
		return
	}
	s.pages.Replace(p)
	respondWithJSON(w, http.StatusOK, summarize(p))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		if code >= 500 {
			zap.L().Error("http error", zap.Int("code", code), zap.String("message", message), zap.Error(err))
		} else {
			response["detail"] = err.Error()
		}
	}
	respondWithJSON(w, code, response)
}
