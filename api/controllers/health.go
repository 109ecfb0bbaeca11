package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/artcart-backend/api/responses"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/artcart-backend/pkg/errors"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

const envHeader = "X-ArtCart-Env"

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently. Nil pingers are
// skipped so the probe works when Redis is not configured.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var (
			mu     sync.Mutex
			checks = map[string]string{}
			failed bool
		)
		var g errgroup.Group
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			g.Go(func() error {
				err := dep.Ping(ctx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					checks[name] = "down"
					failed = true
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
					return nil
				}
				checks[name] = "up"
				return nil
			})
		}
		_ = g.Wait()
		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
