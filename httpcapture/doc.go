// Package httpcapture fills transactions from HTTP requests and responses.
//
// Helper holds the decisions every HTTP adapter shares: whether a request
// body may be buffered, when decoded form parameters are recorded, how the
// post-call bookkeeping runs and which default name a transaction gets.
// Middleware applies all of it to a net/http handler:
//
//	t := tracer.NewClient(cfg, tracer.WithReporter(r))
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", getUser)
//	http.ListenAndServe(":8080", httpcapture.Middleware(t)(mux))
//
// Form parameters are read only after the handler returned. Decoding them
// earlier could change how the handler sees the request, and a decode error
// must never look like it came from the agent.
package httpcapture
