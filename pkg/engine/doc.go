// Package engine provides a Go client for the engine backend API.
//
// Each backend endpoint is one Client method. Requests carry the token
// chosen by the endpoint's credential preference order (see Endpoints),
// falling back to the default token. Non-2xx responses are returned as
// *Error.
//
// Example usage:
//
//	client := engine.NewClient("https://engine.example.com", token,
//	    engine.WithTokens(map[engine.TokenName]string{engine.TokenAdmin: admin}),
//	)
//	defer client.Close()
//
//	data, err := client.GetCaseData(ctx, 42, false, true)
//	if e, ok := engine.AsError(err); ok {
//	    fmt.Println(e.StatusCode, e.Body)
//	}
//
// Bindings and NewRegistry expose the client methods to the dispatch
// package, which turns them into CLI commands.
package engine
