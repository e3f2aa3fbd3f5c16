package testutil

import "sync/atomic"

// RecordingNavigator counts login redirects.
type RecordingNavigator struct {
	atLogin   atomic.Bool
	redirects atomic.Int32
	// Panic makes RedirectToLogin panic after counting.
	Panic bool
}

// SetAtLogin sets what AtLogin reports.
func (n *RecordingNavigator) SetAtLogin(v bool) { n.atLogin.Store(v) }

func (n *RecordingNavigator) AtLogin() bool { return n.atLogin.Load() }

func (n *RecordingNavigator) RedirectToLogin() {
	n.redirects.Add(1)
	n.atLogin.Store(true)
	if n.Panic {
		panic("navigator failure")
	}
}

// Redirects returns how many redirects happened.
func (n *RecordingNavigator) Redirects() int { return int(n.redirects.Load()) }
