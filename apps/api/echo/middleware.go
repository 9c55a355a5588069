package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/user"
	metricsvc "github.com/trezcool/alama/services/metrics"
)

// adminMiddleware lets admins through; they must hold one of roles when any is given.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && claims.hasAnyRole(roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// marksEntryMiddleware lets admins and teachers through.
func marksEntryMiddleware(svc user.Service, auth *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := auth.contextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.CanEnterMarks() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				// let the error handler write the response first so its status is recorded
				ctx.Error(err)
			}
			m.ObserveRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}

func (c Claims) hasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
