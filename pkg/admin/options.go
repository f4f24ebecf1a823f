// Option functions for configuring the admin API.

package admin

import (
	"log/slog"

	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/logging"
)

// Option configures an AdminAPI.
type Option func(*AdminAPI)

// WithStore sets the capture store the API reads from. Pass the
// receiver's store so the API sees live traffic.
func WithStore(store capture.SubscribableStore) Option {
	return func(a *AdminAPI) {
		a.store = store
	}
}

// WithReceiver wires the capture listener into the status endpoint.
// Without it GET /status reports store counts only.
func WithReceiver(src StatusSource) Option {
	return func(a *AdminAPI) {
		a.receiver = src
	}
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *AdminAPI) {
		if log != nil {
			a.log = log
		} else {
			a.log = logging.Nop()
		}
	}
}

// WithCORS configures the CORS settings. If not set, a permissive
// default (allow all origins) is used.
func WithCORS(cfg CORSConfig) Option {
	return func(a *AdminAPI) {
		a.corsConfig = cfg
	}
}

// WithVersion sets the version string returned by the status endpoint.
// If not set, defaults to "dev".
func WithVersion(version string) Option {
	return func(a *AdminAPI) {
		a.version = version
	}
}
