package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/apiguard/credential"
	"github.com/kbukum/apiguard/logger"
)

// Navigator moves the user interface to the login screen.
type Navigator interface {
	// AtLogin reports whether the login screen is already showing.
	AtLogin() bool
	// RedirectToLogin shows the login screen.
	RedirectToLogin()
}

// NavigatorFunc adapts a redirect func to Navigator. It never reports being
// at the login screen.
type NavigatorFunc func()

func (f NavigatorFunc) AtLogin() bool    { return false }
func (f NavigatorFunc) RedirectToLogin() { f() }

// Hook clears credentials and redirects on authentication failure.
type Hook struct {
	store credential.Store
	nav   Navigator
	log   *logger.Logger
	group singleflight.Group
}

// NewHook returns a Hook. nav may be nil for headless clients; log may be
// nil.
func NewHook(store credential.Store, nav Navigator, log *logger.Logger) *Hook {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hook{store: store, nav: nav, log: log.WithComponent("session")}
}

// OnAuthFailure clears the stored credential and redirects to login. It
// never fails: storage errors and navigator panics are logged. Calls that
// overlap an in-progress one wait for it and do not repeat the work.
func (h *Hook) OnAuthFailure(ctx context.Context) {
	_, _, _ = h.group.Do("auth-failure", func() (any, error) {
		log := h.log.WithContext(ctx)
		h.clear(ctx, log)
		h.redirect(log)
		return nil, nil
	})
}

func (h *Hook) clear(ctx context.Context, log *logger.Logger) {
	if h.store == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("credential store panicked", logger.Fields(logger.FieldError, fmt.Sprint(r)))
		}
	}()
	if err := h.store.ClearToken(context.WithoutCancel(ctx)); err != nil {
		log.Warn("failed to clear credentials", logger.ErrorFields("clear_token", err))
		return
	}
	log.Info("credentials cleared after authentication failure")
}

func (h *Hook) redirect(log *logger.Logger) {
	if h.nav == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("navigator panicked", logger.Fields(logger.FieldError, fmt.Sprint(r)))
		}
	}()
	if h.nav.AtLogin() {
		log.Debug("already at login, skipping redirect")
		return
	}
	h.nav.RedirectToLogin()
}
