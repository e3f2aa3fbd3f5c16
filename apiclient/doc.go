// Package apiclient is a resilient client for a JSON HTTP API.
//
// Every call runs the same pipeline per attempt:
//
//	authenticate -> rateLimit -> send -> classify -> log -> sessionHook
//
// wrapped in a retry loop with exponential backoff. Failures come back as
// *errors.EnrichedError carrying the error kind, a user-facing message and
// whether a retry could help.
//
//	c, err := apiclient.New(config.DefaultClientConfig(),
//	    apiclient.WithStore(store),
//	    apiclient.WithNavigator(nav),
//	)
//	resp, err := c.Post(ctx, "/auth/login", creds)
//	if ee, ok := errors.AsEnriched(err); ok {
//	    show(ee.UserMessage)
//	}
//
// Typed helpers decode JSON success bodies:
//
//	user, err := apiclient.GetJSON[User](c, ctx, "/users/42")
package apiclient
