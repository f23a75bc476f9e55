package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pixelflare/studio/internal/admingate"
	"github.com/pixelflare/studio/internal/cli/config"
	"github.com/pixelflare/studio/internal/client"
	"github.com/pixelflare/studio/internal/credentials"
	"github.com/pixelflare/studio/internal/gateway"
	"github.com/pixelflare/studio/internal/logger"
	"github.com/pixelflare/studio/internal/session"
)

// App is everything a command needs, wired once per process.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Vault   *credentials.Vault
	Gateway *gateway.Gateway
	Store   *session.Store
	Gate    *admingate.Gate
	Client  *client.Client
	Nav     *TerminalNavigator
	Prompt  Prompter

	Out    io.Writer
	ErrOut io.Writer
}

type AppOption func(*appOptions)

type appOptions struct {
	vault  *credentials.Vault
	prompt Prompter
}

// WithVault replaces the vault derived from the token store setting.
func WithVault(v *credentials.Vault) AppOption {
	return func(o *appOptions) { o.vault = v }
}

// WithPrompter replaces the interactive terminal prompter.
func WithPrompter(p Prompter) AppOption {
	return func(o *appOptions) { o.prompt = p }
}

// NewApp wires the credential vault, gateway, session store, admin gate and
// typed client for cfg. Log output goes to errOut so stdout stays clean.
func NewApp(cfg *config.Config, out, errOut io.Writer, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.New(errOut, cfg.LogLevel, "console")

	vault := o.vault
	if vault == nil {
		var err error
		if vault, err = buildVault(cfg); err != nil {
			return nil, err
		}
	}

	// store is assigned below; the gateway only calls back once a request
	// has been answered.
	var store *session.Store
	nav := NewTerminalNavigator(errOut)
	gw, err := gateway.New(cfg.APIURL, vault,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithNavigator(nav),
		gateway.WithLogger(log),
		gateway.WithUnauthorizedHandler(func() { store.Expire() }),
	)
	if err != nil {
		return nil, err
	}

	store = session.NewStore(gw, vault, log)
	prompt := o.prompt
	if prompt == nil {
		prompt = NewTerminalPrompter(out)
	}

	return &App{
		Config:  cfg,
		Logger:  log,
		Vault:   vault,
		Gateway: gw,
		Store:   store,
		Gate:    admingate.New(store, gw, vault, nav, log),
		Client:  client.New(gw),
		Nav:     nav,
		Prompt:  prompt,
		Out:     out,
		ErrOut:  errOut,
	}, nil
}

// buildVault picks the durable token slot. The admin secret always lives in
// memory so it ends with the process.
func buildVault(cfg *config.Config) (*credentials.Vault, error) {
	var token credentials.Slot
	switch cfg.TokenStore {
	case config.TokenStoreFile:
		slot, err := credentials.DefaultFileSlot(cfg.Origin(), credentials.TokenKey)
		if err != nil {
			return nil, err
		}
		token = slot
	case config.TokenStoreMemory:
		token = credentials.NewMemorySlot()
	default:
		token = credentials.NewKeyringSlot(cfg.Origin(), credentials.TokenKey)
	}
	return credentials.NewVault(token, credentials.NewMemorySlot()), nil
}

// Restore reloads the persisted session. A stale token is dropped quietly;
// commands that need a session report that themselves.
func (a *App) Restore(ctx context.Context) {
	if err := a.Store.RestoreSession(ctx); err != nil {
		a.Logger.Debug().Err(err).Msg("No session restored")
	}
}

// requireSession fails unless a user is signed in.
func (a *App) requireSession() (*session.User, error) {
	state := a.Store.State()
	if !state.IsAuthenticated || state.User == nil {
		return nil, fmt.Errorf("not logged in. Run 'studio login' first")
	}
	return state.User, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

type appKey struct{}

// ContextWithApp attaches app to ctx for the commands run under it.
func ContextWithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFrom(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("command is not initialized")
	}
	return app, nil
}
