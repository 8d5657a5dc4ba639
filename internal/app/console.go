package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dutydesk/dutydesk-console/internal/api"
	"github.com/dutydesk/dutydesk-console/internal/config"
	"github.com/dutydesk/dutydesk-console/internal/devserver"
	"github.com/dutydesk/dutydesk-console/internal/logger"
	"github.com/dutydesk/dutydesk-console/internal/routes"
	"github.com/dutydesk/dutydesk-console/internal/session"
	"github.com/dutydesk/dutydesk-console/pkg/events"
	"github.com/dutydesk/dutydesk-console/pkg/httpclient"
)

// Console is the runtime behind every command. It owns the session store,
// the authenticated client and the session event fanout.
type Console struct {
	cfg    *config.Config
	log    logger.Logger
	store  session.Store
	fanout *events.Fanout
	client *httpclient.Client
	api    *api.Service

	// Expired is called after the session was reset by a 401, once per response.
	// It receives the route the user should return to.
	Expired func(evt events.Event, landing routes.Route)
}

// NewConsole builds a console runtime from config.
func NewConsole(ctx context.Context, cfg *config.Config, log logger.Logger) (*Console, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := session.NewStore(cfg.SessionStore, session.Options{
		Path:        cfg.SessionPath,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	log.DebugObj("session store initialized", "session_store", map[string]any{
		"type": cfg.SessionStore,
		"path": cfg.SessionPath,
	})

	fanout, err := events.Open(ctx, cfg.Sinks, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	c := &Console{
		cfg:    cfg,
		log:    log,
		store:  store,
		fanout: fanout,
	}

	client, err := httpclient.New(httpclient.Options{
		Origin:           cfg.APIOrigin,
		Store:            store,
		OnSessionExpired: c.sessionExpired,
		Logger:           log,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init http client: %w", err)
	}
	c.client = client

	svc, err := api.NewService(client, store)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.api = svc
	return c, nil
}

// API returns the typed backend service.
func (c *Console) API() *api.Service { return c.api }

// Config returns the loaded configuration.
func (c *Console) Config() *config.Config { return c.cfg }

// DevServer builds the development server from config.
func (c *Console) DevServer() (*devserver.Server, error) {
	return devserver.New(devserver.Options{
		ListenAddr: c.cfg.DevListenAddr,
		BackendURL: c.cfg.DevBackendURL,
		StaticDir:  c.cfg.DevStaticDir,
	}, c.log)
}

// sessionExpired is the client's 401 hook: it publishes the event and sends
// the user back to the root route.
func (c *Console) sessionExpired(ctx context.Context, evt httpclient.SessionExpired) {
	out := events.NewSessionExpired(c.cfg.AppName, evt)
	if n, err := c.fanout.Publish(ctx, out); err != nil {
		c.log.ErrorObj("session event publish failed", "session_event_error", map[string]any{
			"delivered": n,
			"error":     err.Error(),
		})
	}

	landing, _ := routes.Resolve("/")
	if c.Expired != nil {
		c.Expired(out, landing)
	}
}

// Close releases the session store and publishers.
func (c *Console) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.fanout != nil {
		if err := c.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}
	return errors.Join(errs...)
}
