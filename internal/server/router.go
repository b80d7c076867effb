// Package server assemble le routeur HTTP de l'application.
package server

import (
	"net/http"

	"github.com/chekib1978/entree-flow-scan-stats/httpx"
	"github.com/chekib1978/entree-flow-scan-stats/internal/config"
	"github.com/chekib1978/entree-flow-scan-stats/internal/handlers"
	"github.com/chekib1978/entree-flow-scan-stats/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New construit le http.Handler racine avec toutes les routes et tous les
// middlewares. Les collections répondent en GET (liste) et POST
// (création); les autres actions passent par des sous-chemins POST avec
// l'identifiant en query string.
func New(db *gorm.DB, logger *zap.Logger, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ah := handlers.NewArticleHandler(db, logger)
	mux.HandleFunc("/articles", collection(ah.List, ah.Create))
	mux.HandleFunc("POST /articles/update", ah.Update)
	mux.HandleFunc("POST /articles/delete", ah.Delete)
	mux.HandleFunc("POST /articles/delete-all", ah.DeleteAll)
	mux.HandleFunc("POST /articles/import", ah.Import)

	bh := handlers.NewBonHandler(db, logger)
	mux.HandleFunc("/bons", collection(bh.List, bh.Create))
	mux.HandleFunc("GET /bons/detail", bh.Detail)
	mux.HandleFunc("POST /bons/update", bh.Update)
	mux.HandleFunc("POST /bons/delete", bh.Delete)

	gh := handlers.NewGroupeHandler(db, logger)
	mux.HandleFunc("/groupes", collection(gh.List, gh.Create))
	mux.HandleFunc("GET /groupes/details", gh.Details)
	mux.HandleFunc("GET /groupes/export", gh.Export)
	mux.HandleFunc("POST /groupes/dissoudre", gh.Dissoudre)

	sch := handlers.NewScanHandler(db, logger)
	mux.HandleFunc("POST /scan", sch.Scan)

	sth := handlers.NewStatsHandler(db, logger)
	mux.HandleFunc("GET /statistiques", sth.Statistiques)
	mux.HandleFunc("GET /statistiques/export", sth.Export)
	mux.HandleFunc("GET /dashboard", sth.Dashboard)

	var h http.Handler = mux
	h = withRecover(logger, h)
	h = middleware.Logging(logger, h)
	h = middleware.RequestID(h)
	h = middleware.CORS(cfg.CORSOrigin, h)
	return h
}

// collection aiguille GET vers la liste et POST vers la création.
func collection(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}
}

func withRecover(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panique récupérée",
					zap.Any("panique", rec),
					zap.String("chemin", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
