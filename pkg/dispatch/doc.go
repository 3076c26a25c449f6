// Package dispatch turns a static table of client methods into CLI
// commands.
//
// Each Endpoint pairs a method name with its parameter descriptors and a
// call binding. A Registry filters and sorts the bindings against backend
// metadata. Coerce parses repeated "key=value" inputs into an Args bag
// using the declared Type of each parameter, and Dispatcher runs one call
// and renders its result as indented JSON.
//
// Example usage:
//
//	reg, err := dispatch.NewRegistry(bindings, meta)
//	ep, _ := reg.Lookup("get-case-data")
//
//	sess := dispatch.NewSession[*engine.Client]()
//	sess.Attach(client)
//
//	d := &dispatch.Dispatcher[*engine.Client]{Session: sess, Out: os.Stdout}
//	err = d.Dispatch(ctx, ep, []string{"request_id=42"})
//	os.Exit(dispatch.Report(os.Stderr, err))
package dispatch
