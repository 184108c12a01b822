// Package discovery serves the server registry over a loopback-only HTTP
// endpoint at /.well-known/mcp.json.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/go-chi/chi/v5"
)

// Host is the only interface the endpoint listens on.
const Host = "127.0.0.1"

// WellKnownPath is the route of the discovery index.
const WellKnownPath = "/.well-known/mcp.json"

const landingPage = `<!DOCTYPE html>
<html>
<head>
    <title>MCP Hub Discovery</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        code { background: #f4f4f4; padding: 2px 6px; border-radius: 4px; }
        a { color: #0066cc; }
    </style>
</head>
<body>
    <h1>MCP Hub Discovery Server</h1>
    <p>This server lists the MCP servers managed by MCP Hub for other applications on this machine.</p>
    <h2>Endpoints</h2>
    <ul>
        <li><a href="/.well-known/mcp.json"><code>/.well-known/mcp.json</code></a> - discovery index</li>
        <li><a href="/health"><code>/health</code></a> - health check</li>
    </ul>
</body>
</html>
`

// Handle controls a running endpoint.
type Handle struct {
	snap     *snapshot
	server   *http.Server
	listener net.Listener
	done     chan struct{}

	once        sync.Once
	shutdownErr error
}

// Start binds 127.0.0.1:port and serves the given servers until Shutdown.
// Port 0 picks a free port; see Handle.Port.
func Start(port uint16, servers []models.Server) (*Handle, error) {
	addr := net.JoinHostPort(Host, strconv.Itoa(int(port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, newBindError(port, err)
	}

	h := &Handle{
		snap:     newSnapshot(servers),
		listener: ln,
		done:     make(chan struct{}),
	}
	h.server = &http.Server{
		Handler:           NewRouter(h.snap.list),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		defer close(h.done)
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Discovery", err, "Endpoint on %s stopped", ln.Addr())
		}
	}()

	logging.Info("Discovery", "Discovery server started on http://%s", ln.Addr())
	return h, nil
}

// Port is the port the endpoint is bound to.
func (h *Handle) Port() uint16 {
	if tcp, ok := h.listener.Addr().(*net.TCPAddr); ok {
		return uint16(tcp.Port)
	}
	return 0
}

// URL is the base URL of the endpoint.
func (h *Handle) URL() string {
	return "http://" + h.listener.Addr().String()
}

// UpdateServers replaces the served server list. Requests in flight see
// either the old or the new list.
func (h *Handle) UpdateServers(servers []models.Server) {
	h.snap.replace(servers)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires. Later calls return the first call's result.
func (h *Handle) Shutdown(ctx context.Context) error {
	h.once.Do(func() {
		h.shutdownErr = h.server.Shutdown(ctx)
		select {
		case <-h.done:
		case <-ctx.Done():
		}
		logging.Info("Discovery", "Discovery server on port %d stopped", h.Port())
	})
	return h.shutdownErr
}

// NewRouter builds the endpoint's routes over a server source.
func NewRouter(servers func() []models.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery)
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingPage))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("OK"))
	})
	r.Get(WellKnownPath, func(w http.ResponseWriter, r *http.Request) {
		index := BuildIndex(servers(), time.Now())
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.Encode(index)
	})
	return r
}

// IsPortAvailable reports whether 127.0.0.1:port can be bound right now.
func IsPortAvailable(port uint16) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(Host, strconv.Itoa(int(port))))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
