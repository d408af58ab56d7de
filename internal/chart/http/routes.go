package charthttp

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/boardsmith/chartsmith/internal/chart/export"
	"github.com/boardsmith/chartsmith/internal/platform/httpx"
)

// MountRoutes registers chart endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.rateLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)

	r.Route("/charts", func(r chi.Router) {
		r.Post("/render", h.handleRender)
		r.Post("/preview", h.handlePreview)
		r.Get("/archetypes", h.handleArchetypes)
		r.Get("/themes", h.handleThemes)
		r.Delete("/cache", h.handleInvalidate)
		r.Get("/exports/{id}", h.handleGetExport)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/export.csv", h.exportHandler(export.FormatCSV))
			gr.Post("/export.xlsx", h.exportHandler(export.FormatXLSX))
			gr.Post("/export.pdf", h.exportHandler(export.FormatPDF))
			gr.Post("/export.svg", h.exportHandler(export.FormatSVG))
			gr.Post("/export.png", h.exportHandler(export.FormatPNG))
			gr.Post("/exports", h.handleCreateExport)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

// slug turns a chart title into a file name stem.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 60 {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
