package controllers

import (
	"context"
	"net/http"

	"github.com/streetcart/groupbuy-backend/api/responses"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

const envHeader = "X-GroupBuy-Env"

// Pinger is any dependency with a cheap liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]string{"dependency": name})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
			checks[name] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
