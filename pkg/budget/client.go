package budget

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"

	"github.com/mfeltz/budgetboard-go/internal/localdb"
	"github.com/mfeltz/budgetboard-go/internal/transport"
	"github.com/mfeltz/budgetboard-go/internal/types"
)

// Client is the budget synchronization core. It owns the active data store,
// the session state, the reconciler and the realtime router, and exposes
// the typed entity operations.
type Client struct {
	// Data is the active in-memory snapshot of the selected budget.
	Data *ActiveDataStore

	// Session tracks the current budget and subscription lifecycle.
	Session *SessionState

	store      types.Store
	realtime   types.RealtimeStore // nil when the backend has no change feed
	reconciler *Reconciler
	router     *Router
	options    *Options
	log        types.Logger
}

// Options configures the client.
type Options struct {
	// BaseURL of the hosted store. Selects the remote backend when set.
	BaseURL string

	// APIKey authenticates against the hosted store.
	APIKey string

	// LocalPath selects the local file backend when BaseURL is empty.
	LocalPath string

	// UserID is the authenticated user, used for membership events and
	// change attribution.
	UserID string

	// Store overrides backend selection entirely.
	Store types.Store

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// RetryConfig configures retry behavior
	RetryConfig *types.RetryConfig

	// DebounceInterval is the quiet period before a realtime event burst
	// triggers a reconciliation. Defaults to 300ms.
	DebounceInterval time.Duration

	// Renderer receives "render now" signals. May be nil.
	Renderer Renderer

	// Notifier receives user-facing notifications. May be nil.
	Notifier Notifier

	// Logger for debug logging
	Logger types.Logger

	// Hooks for observability
	Hooks *types.Hooks

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// NewClient creates a new budget sync client.
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}

	// Initialize Sentry if configured
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}
		if err := sentry.Init(sentryOpts); err != nil && opts.Logger != nil {
			opts.Logger.Error("Failed to initialize Sentry", "error", err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = types.NopLogger{}
	}

	store := opts.Store
	if store == nil {
		switch {
		case opts.BaseURL != "":
			store = transport.New(&transport.Options{
				BaseURL:     opts.BaseURL,
				APIKey:      opts.APIKey,
				HTTPClient:  opts.HTTPClient,
				Timeout:     opts.Timeout,
				RetryConfig: opts.RetryConfig,
				Logger:      log,
				Hooks:       opts.Hooks,
			})
		case opts.LocalPath != "":
			db, err := localdb.Open(opts.LocalPath)
			if err != nil {
				return nil, errors.Wrap(err, "failed to open local store")
			}
			store = db
		default:
			return nil, errors.New("one of BaseURL, LocalPath or Store is required")
		}
	}

	c := &Client{
		Data:    NewActiveDataStore(),
		Session: NewSessionState(opts.UserID),
		store:   store,
		options: opts,
		log:     log,
	}
	c.realtime, _ = store.(types.RealtimeStore)

	c.reconciler = NewReconciler(store, c.Data, c.Session, opts.Renderer, log)
	c.router = NewRouter(c.Data, c.Session, c.reconciler,
		opts.Renderer, opts.Notifier, log, opts.DebounceInterval, c.handleAccessRevoked)

	return c, nil
}

// Store exposes the backend for callers that need raw row access.
func (c *Client) Store() types.Store {
	return c.store
}

// Router exposes the realtime event router, mainly so an embedding
// application can feed it events from its own transport.
func (c *Client) Router() *Router {
	return c.router
}

// Reconcile forces a full authoritative reload of the given budget.
func (c *Client) Reconcile(ctx context.Context, budgetID string) error {
	return c.reconciler.Reconcile(ctx, budgetID)
}

// Budgets lists the budgets the user can access, minus any whose
// membership was revoked during this session.
func (c *Client) Budgets(ctx context.Context) ([]BudgetInfo, error) {
	all, err := c.store.Budgets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list budgets")
	}

	visible := make([]BudgetInfo, 0, len(all))
	for _, b := range all {
		if !c.Session.IsRevoked(b.ID) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// ActivateBudget selects a budget, loads its data and, for shared budgets,
// opens the realtime channels. Safe to call while a previous activation's
// load is still in flight; the stale pass discards itself.
func (c *Client) ActivateBudget(ctx context.Context, budgetID string) error {
	info, err := c.budgetInfo(ctx, budgetID)
	if err != nil {
		return err
	}

	c.Session.SetCurrent(budgetID, info.Shared)
	c.Data.SwitchScope(budgetID)

	// Per-kind channels from the previous budget go away immediately, even
	// when the new budget is a personal one.
	c.Session.UnsubscribeKinds()

	if err := c.reconciler.Reconcile(ctx, budgetID); err != nil {
		return err
	}

	if c.Session.CurrentBudget() != budgetID {
		// Superseded by another activation while loading.
		return nil
	}

	if info.Shared {
		if c.realtime == nil {
			c.log.Warn("shared budget selected but backend has no change feed", "budget", budgetID)
			return nil
		}
		if err := c.Session.SubscribeKinds(c.realtime, budgetID, c.router.HandleEvent); err != nil {
			return errors.Wrap(err, "failed to subscribe realtime channels")
		}
	}
	return nil
}

// DeactivateCurrentBudget deselects the current budget and closes its
// realtime channels. The membership channel stays open.
func (c *Client) DeactivateCurrentBudget() {
	c.Session.UnsubscribeKinds()
	c.Session.SetCurrent("", false)
	c.Data.SwitchScope("")
}

// Close tears down subscriptions and flushes pending Sentry events.
func (c *Client) Close() {
	c.Session.CloseSubscriptions()
	sentry.Flush(2 * time.Second)
}

func (c *Client) budgetInfo(ctx context.Context, budgetID string) (BudgetInfo, error) {
	all, err := c.store.Budgets(ctx)
	if err != nil {
		return BudgetInfo{}, errors.Wrap(err, "failed to resolve budget")
	}
	for _, b := range all {
		if b.ID == budgetID {
			return b, nil
		}
	}
	return BudgetInfo{}, ErrNotFound
}

// handleAccessRevoked runs when the user's own membership row for a budget
// is deleted. If it was the selected budget it gets deselected; the session
// itself stays authenticated.
func (c *Client) handleAccessRevoked(budgetID string) {
	if c.Session.CurrentBudget() == budgetID {
		c.DeactivateCurrentBudget()
	}

	// Refresh the accessible-budget list so the UI can re-render it.
	if _, err := c.Budgets(context.Background()); err != nil {
		c.log.Warn("budget list refresh after revocation failed", "error", err)
	}
	if c.options.Renderer != nil {
		c.options.Renderer.Render()
	}
}
