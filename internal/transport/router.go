package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/config"
	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/screen"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config    *config.Config
	Screens   *screen.Router
	Catalog   *catalog.Registry
	Contract  *contract.Contract
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Readiness observability.ReadinessChecks
	Logger    *zap.Logger
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, metrics, the contract, the catalog,
// login and the entry screen bypass the session guard.
func NewRouter(deps Dependencies) chi.Router {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	h := &handlers{
		screens:  deps.Screens,
		contract: deps.Contract,
		cookie: SessionCookie{
			Name:   deps.Config.Session.CookieName,
			Secure: deps.Config.Session.SecureCookie,
		},
		maxUpload: deps.Config.Server.MaxUploadBytes,
		logger:    deps.Logger,
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(observability.TracingMiddleware)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	r.Get("/healthz", observability.HandleHealth())
	r.Get("/readyz", observability.HandleReady(deps.Readiness))
	if mc := deps.Config.Observability.Metrics; mc.Enabled && mc.Path != "" {
		r.Method(http.MethodGet, mc.Path, observability.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)

		r.Get("/openapi.yaml", handleContract)
		r.Get("/catalog", handleCatalog(deps.Catalog))
		r.Get("/screen", h.getScreen)
		r.Post("/session", h.login)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.Screens, h.cookie))

			r.Delete("/session", h.logout)
			r.Put("/workflow", h.selectWorkflow)
			r.Patch("/form/fields", h.inputFields)
			r.Post("/form/files/{field}", h.uploadFiles)
			r.Post("/form/routes", h.addRoute)
			r.Post("/form/address-search", h.searchAddress)
			r.Post("/form/submit", h.submit)
			r.Post("/modal/confirm", h.confirmModal)
			r.Post("/modal/cancel", h.cancelModal)
			r.Post("/modal/close", h.closeModal)
		})
	})

	return r
}
