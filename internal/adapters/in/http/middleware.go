package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(handler string, status int, took time.Duration)
}

// RequestMetrics labels requests with their route template, so
// /api/v1/orders/:id/dispatch is one series for every order.
func RequestMetrics(observer RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			status := ctx.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(route, status, time.Since(start))
			return err
		}
	}
}
