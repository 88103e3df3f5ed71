package routemock

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/dealer-verify/internal/errs"
	"github.com/kuitang/dealer-verify/internal/logutil"
	"github.com/kuitang/dealer-verify/internal/obs"
)

const logBodyPreviewChars = 240

// Install routes every request the page makes through the table. Matched
// requests are fulfilled with the mock's response and never reach the
// network; everything else continues unchanged.
//
// Install must run before the page navigates, otherwise requests already in
// flight escape the table.
func (t *Table) Install(ctx context.Context, page playwright.Page) error {
	log := obs.From(ctx).With("pkg", "routemock")

	for _, s := range t.Shadowed() {
		log.Warn("route mock shadowed by earlier registration",
			"shadowed", s.Loser.Describe(),
			"winner", s.Winner.Describe(),
			"example_url", s.Example,
		)
	}

	err := page.Route("**", func(route playwright.Route) {
		req := route.Request()
		m, ok := t.Resolve(req.Method(), req.URL())
		if !ok {
			if err := route.Continue(); err != nil {
				log.Debug("route passthrough failed", "method", req.Method(), "url", req.URL(), "error", err)
			}
			return
		}

		log.Debug("route mock fulfilled",
			"method", req.Method(),
			"url", req.URL(),
			"pattern", m.Pattern,
			"status", m.StatusCode(),
			"request_headers", logutil.FormatHeadersForLog(req.Headers()),
			"response_body", logutil.FormatBodyForLog(m.ResponseContentType(), m.Body, logBodyPreviewChars),
		)
		if err := route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(m.StatusCode()),
			ContentType: playwright.String(m.ResponseContentType()),
			Headers:     m.Headers,
			Body:        m.Body,
		}); err != nil {
			log.Error("route mock fulfil failed", "pattern", m.Pattern, "url", req.URL(), "error", err)
		}
	})
	if err != nil {
		return errs.Wrap(errs.MockRegistration, "install route mocks", err)
	}

	log.Debug("route mocks installed", "count", t.Len())
	return nil
}
