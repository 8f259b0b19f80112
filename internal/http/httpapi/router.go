package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/http/handlers"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/middleware"
)

type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   language.Tag
	CountryLookup   middleware.CountryLookup

	// TrustProxyHeaders enables chi's RealIP. Leave it off unless a proxy
	// in front of the service overwrites X-Forwarded-For.
	TrustProxyHeaders bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/functions", app.Functions)
		r.Get("/status", app.Status)
		r.Get("/usage", app.UsageSummary)

		r.Route("/requests", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.EnqueueRequest)
			r.Get("/{id}", app.GetRequest)
			r.Delete("/{id}", app.DeleteRequest)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/", app.SubmitFeedback)
			r.Get("/summary", app.FeedbackSummary)
		})
	})

	return r
}
