package httpserver

import "net/http"

// Routes aggregates handlers for HTTP server.
type Routes struct {
	TankerData  http.HandlerFunc
	WeldingData http.HandlerFunc
	Live        http.HandlerFunc
	Health      http.HandlerFunc
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.TankerData != nil {
		mux.Handle("/api/tanker/data", method(http.MethodPost, routes.TankerData))
	}
	if routes.WeldingData != nil {
		mux.Handle("/api/data/{id}", method(http.MethodPost, routes.WeldingData))
	}
	if routes.Live != nil {
		mux.Handle("/ws", method(http.MethodGet, routes.Live))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
