package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/csvexport"
	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/output"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/view"
)

// KeyMonth selects the calendar month, e.g. month=2026-02.
const KeyMonth = "month"

type errorBody struct {
	Error string `json:"error"`
	Stale bool   `json:"stale,omitempty"`
}

// PageSummary is one entry of GET /api/pages.
type PageSummary struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Loaded    bool      `json:"loaded"`
	Records   int       `json:"records"`
	Overdue   int       `json:"overdue"`
	Error     string    `json:"error,omitempty"`
	Stale     bool      `json:"stale,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

func (s *Server) summaries() []PageSummary {
	pages := s.ctrl.Pages()
	out := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		sum := PageSummary{Name: p.Name(), Title: p.Title()}
		if v, ok := s.ctrl.View(p.Name()); ok {
			sum.Loaded = true
			sum.Records = v.Stats.Total
			sum.Overdue = v.Stats.Overdue
			sum.Error = v.Error
			sum.Stale = v.Stale
			sum.FetchedAt = v.FetchedAt
		}
		out = append(out, sum)
	}
	return out
}

func (s *Server) handleListPages(c *gin.Context) {
	c.JSON(http.StatusOK, s.summaries())
}

func (s *Server) handleHealth(c *gin.Context) {
	loaded := 0
	for _, sum := range s.summaries() {
		if sum.Loaded {
			loaded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"pages":  len(s.ctrl.Pages()),
		"loaded": loaded,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// requestView resolves the page and query of c into a view. On failure it
// returns the HTTP status and error to report.
func (s *Server) requestView(c *gin.Context) (*view.View, int, error) {
	p, err := page.Get(c.Param("name"))
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	q := c.Request.URL.Query()
	st, err := filter.ParseState(q, p.Filters())
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid filter: %w", err)
	}
	month, err := parseMonth(q.Get(KeyMonth))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	v, err := s.ctrl.ViewOf(c.Request.Context(), p.Name(), st, month)
	switch {
	case errors.Is(err, page.ErrUnknownPage):
		return nil, http.StatusNotFound, err
	case errors.Is(err, controller.ErrNotLoaded):
		return nil, http.StatusServiceUnavailable, err
	case err != nil:
		return nil, http.StatusInternalServerError, err
	}
	// An error with no snapshot behind it leaves nothing to show.
	if v.Error != "" && !v.Stale {
		return v, http.StatusServiceUnavailable, errors.New(v.Error)
	}
	return v, http.StatusOK, nil
}

func parseMonth(s string) (record.Date, error) {
	if s == "" {
		return record.Date{}, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return record.Date{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return record.NewDate(t.Year(), t.Month(), 1), nil
}

func (s *Server) handleGetPage(c *gin.Context) {
	v, code, err := s.requestView(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(code, errorBody{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleExport(c *gin.Context) {
	v, code, err := s.requestView(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(code, errorBody{Error: err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := csvexport.Write(&buf, v.Table.Headers, output.TableCells(v.Table)); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", csvexport.Filename(v.Page, v.Today)))
	c.Data(http.StatusOK, csvexport.ContentType, buf.Bytes())
}

func (s *Server) handlePage(c *gin.Context) {
	v, code, err := s.requestView(c)
	if err != nil && v == nil {
		_ = c.Error(err)
		c.Data(code, "text/plain; charset=utf-8", []byte(err.Error()+"\n"))
		return
	}

	var buf bytes.Buffer
	if ferr := s.html.FormatPage(v, &buf, output.PageOptions{
		Pages:    s.links(),
		BasePath: "/pages/",
		Live:     true,
	}); ferr != nil {
		_ = c.Error(ferr)
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte(ferr.Error()+"\n"))
		return
	}
	// A failed page without a snapshot still renders its error banner.
	c.Data(code, output.ContentType(s.html), buf.Bytes())
}

func (s *Server) links() []output.PageLink {
	pages := s.ctrl.Pages()
	out := make([]output.PageLink, len(pages))
	for i, p := range pages {
		out[i] = output.PageLink{Name: p.Name(), Title: p.Title()}
	}
	return out
}

func (s *Server) handleIndex(c *gin.Context) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, s.summaries()); err != nil {
		_ = c.Error(err)
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte(err.Error()+"\n"))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func pageURL(name string) string {
	return "/pages/" + url.PathEscape(name)
}
