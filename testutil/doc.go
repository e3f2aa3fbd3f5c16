// Package testutil provides test doubles for apiguard clients.
//
// # Quick Start
//
//	func TestLogin(t *testing.T) {
//	    backend := testutil.NewBackend()
//	    testutil.T(t).Setup(backend)
//	    backend.Handle("POST", "/auth/login", testutil.Reply{Status: 401, Body: gin.H{"message": "Token expired"}})
//	    // point the client at backend.URL()
//	}
//
// Components:
//
//   - Backend: a gin fake API on an httptest server with scripted replies
//     and request recording.
//   - Redis: an in-memory Redis (miniredis).
//
// Doubles:
//
//   - FakeClock: a manually advanced clock.
//   - RecordingNavigator: counts login redirects.
//
// Every component implements TestComponent so T(t).Setup starts it and stops
// it when the test ends.
package testutil
