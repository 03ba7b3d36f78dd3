package handler

import (
	"net/http"

	"github.com/Dan9191/recipe-service/internal/middleware"
	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// slash makes the trailing slash of a route optional
const slash = "{slash:/?}"

// RouterConfig carries the pieces of the router that depend on deployment
type RouterConfig struct {
	Auth         mux.MiddlewareFunc
	TokenLimiter *rate.Limiter
	// MediaRoot is served under MediaURL when images are kept on local disk
	MediaRoot string
	MediaURL  string
}

// NewRouter wires every endpoint of the API
func NewRouter(h *Handler, cfg RouterConfig, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(log), middleware.Metrics, middleware.Recover(log))

	protect := func(f http.HandlerFunc) http.Handler {
		return cfg.Auth(f)
	}

	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/user/create"+slash, h.Register).Methods(http.MethodPost)
	token := http.Handler(http.HandlerFunc(h.CreateToken))
	if cfg.TokenLimiter != nil {
		token = middleware.RateLimit(cfg.TokenLimiter)(token)
	}
	r.Handle("/api/user/token"+slash, token).Methods(http.MethodPost)

	// Protected routes
	r.Handle("/api/user/me"+slash, protect(h.Me)).Methods(http.MethodGet)
	r.Handle("/api/user/me"+slash, protect(h.UpdateMe)).Methods(http.MethodPut, http.MethodPatch)

	r.Handle("/api/recipe/recipes"+slash, protect(h.ListRecipes)).Methods(http.MethodGet)
	r.Handle("/api/recipe/recipes"+slash, protect(h.CreateRecipe)).Methods(http.MethodPost)
	r.Handle("/api/recipe/recipes/export"+slash, protect(h.ExportRecipes)).Methods(http.MethodGet)
	r.Handle("/api/recipe/recipes/{id:[0-9]+}"+slash, protect(h.GetRecipe)).Methods(http.MethodGet)
	r.Handle("/api/recipe/recipes/{id:[0-9]+}"+slash, protect(h.UpdateRecipe)).Methods(http.MethodPut, http.MethodPatch)
	r.Handle("/api/recipe/recipes/{id:[0-9]+}"+slash, protect(h.DeleteRecipe)).Methods(http.MethodDelete)
	r.Handle("/api/recipe/recipes/{id:[0-9]+}/upload-image"+slash, protect(h.UploadImage)).Methods(http.MethodPost)

	for path, kind := range map[string]models.ItemKind{
		"/api/recipe/tags":        models.KindTag,
		"/api/recipe/ingredients": models.KindIngredient,
	} {
		r.Handle(path+slash, protect(h.ListItems(kind))).Methods(http.MethodGet)
		r.Handle(path+"/{id:[0-9]+}"+slash, protect(h.UpdateItem(kind))).Methods(http.MethodPut, http.MethodPatch)
		r.Handle(path+"/{id:[0-9]+}"+slash, protect(h.DeleteItem(kind))).Methods(http.MethodDelete)
	}

	if cfg.MediaRoot != "" {
		r.PathPrefix(cfg.MediaURL).Handler(
			http.StripPrefix(cfg.MediaURL, http.FileServer(http.Dir(cfg.MediaRoot))),
		).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}
