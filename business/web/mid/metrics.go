package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web",
		Name:      "requests_total",
		Help:      "Requests handled by the API.",
	})

	errorCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web",
		Name:      "errors_total",
		Help:      "Requests that returned an error.",
	})

	panicCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "web",
		Name:      "panics_total",
		Help:      "Requests that panicked.",
	})
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and errors counters.
			requests.Inc()
			if err != nil {
				errorCount.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
