package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dutydesk/dutydesk-console/internal/logger"
	"github.com/dutydesk/dutydesk-console/internal/routes"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Options configures the development server.
type Options struct {
	ListenAddr string
	BackendURL string
	StaticDir  string
}

// Server serves the single-page client and proxies BasePath to the backend.
type Server struct {
	opts    Options
	handler http.Handler
	log     logger.Logger
}

// New builds the dev server router.
func New(opts Options, log logger.Logger) (*Server, error) {
	log = logger.Ensure(log)

	target, err := url.Parse(strings.TrimSpace(opts.BackendURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BackendURL)
	}

	s := &Server{opts: opts, log: log}
	s.handler = s.router(newProxy(target, log))
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) router(proxy http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle(httpclient.BasePath, proxy)
	r.PathPrefix(httpclient.BasePath + "/").Handler(proxy)

	routes.Register(r, http.HandlerFunc(s.serveIndex))

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	return r
}

// serveIndex answers every client-side route with the SPA entry document.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, "index.html"))
}

// newProxy forwards BasePath requests to target with the prefix removed and
// the Host header rewritten to the target's.
func newProxy(target *url.URL, log logger.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripBasePath(pr.Out.URL.Path)
			if pr.Out.URL.RawPath != "" {
				pr.Out.URL.RawPath = stripBasePath(pr.Out.URL.RawPath)
			}
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorObj("proxy request failed", "proxy_error", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"target": target.String(),
				"error":  err.Error(),
			})
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func stripBasePath(p string) string {
	p = strings.TrimPrefix(p, httpclient.BasePath)
	if p == "" {
		return "/"
	}
	return p
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.InfoObj("dev server listening", "dev_server", map[string]any{
		"addr":        ln.Addr().String(),
		"backend_url": s.opts.BackendURL,
		"static_dir":  s.opts.StaticDir,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown dev server: %w", err)
		}
		s.log.InfoObj("dev server stopped", "reason", ctx.Err())
		return nil
	}
}
