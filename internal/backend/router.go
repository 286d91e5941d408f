package backend

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

type Config struct {
	AdminToken     string
	AllowedOrigins []string
	// AIRatePerMinute bounds advice requests across all clients; <=0 disables the limit.
	AIRatePerMinute int
}

type API struct {
	store    Store
	advisor  Advisor
	validate *validator.Validate
	limiter  *rate.Limiter
	cfg      Config
}

func NewAPI(store Store, advisor Advisor, cfg Config) *API {
	if advisor == nil {
		advisor = CannedAdvisor{}
	}
	api := &API{
		store:    store,
		advisor:  advisor,
		validate: newValidator(),
		cfg:      cfg,
	}
	if cfg.AIRatePerMinute > 0 {
		api.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AIRatePerMinute)), cfg.AIRatePerMinute)
	}
	return api
}

func NewRouter(store Store, advisor Advisor, cfg Config) http.Handler {
	api := NewAPI(store, advisor, cfg)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", skipBrowserWarningHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
	})

	r.Get("/health", api.HandleHealth)

	r.Get("/businesses", api.HandleListBusinesses)
	r.Get("/businesses/", api.HandleListBusinesses)
	r.Get("/bussiness-options", api.HandleListBusinesses)

	r.Post("/login", api.HandleLogin)
	r.Post("/auth/register", api.HandleRegister)
	r.Post("/check-subscription", api.HandleCheckSubscription)

	r.Group(func(r chi.Router) {
		r.Use(api.requireUser)
		r.Get("/tests", api.HandleListQuestions)
		r.Get("/tests/", api.HandleListQuestions)
		r.Get("/test/{business_id}", api.HandleBusinessQuestions)
		r.Post("/ai", api.HandleAdvice)
	})

	r.Group(func(r chi.Router) {
		r.Use(api.requireAdmin)
		r.Post("/businesses", api.HandleCreateBusiness)
		r.Post("/businesses/", api.HandleCreateBusiness)
		r.Delete("/businesses/{id}", api.HandleDeleteBusiness)
		r.Post("/tests", api.HandleCreateQuestion)
		r.Post("/tests/", api.HandleCreateQuestion)
		r.Delete("/tests/{id}", api.HandleDeleteQuestion)
	})

	return r
}
