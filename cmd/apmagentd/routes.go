package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aalemi-dev/apm-lab/httpcapture"
	"github.com/aalemi-dev/apm-lab/reactive"
	"github.com/aalemi-dev/apm-lab/tracer"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var users = map[string]user{
	"1": {ID: "1", Name: "alice"},
	"2": {ID: "2", Name: "bob"},
}

// routes serves the synchronous API through the middleware and the /async/
// API through the reactive wrappers.
func routes(t *tracer.TracerClient) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		span := t.StartSpan(r.Context(), "users.lookup")
		u, ok := users[r.PathValue("id")]
		span.End()
		if !ok {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, u)
	})
	api.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		var u user
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, u)
	})

	async := http.NewServeMux()
	async.HandleFunc("GET /async/users/{id}", asyncUser(t))

	root := http.NewServeMux()
	root.Handle("/async/", async)
	root.Handle("/", httpcapture.Middleware(t)(api))
	return root
}

func asyncUser(t *tracer.TracerClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex := reactive.NewHTTPExchange(r)
		id := r.PathValue("id")

		p := reactive.Handle(r.Context(), t, ex, func(ctx context.Context) reactive.Publisher[user] {
			return reactive.FromFunc(func(ctx context.Context) (user, error) {
				time.Sleep(10 * time.Millisecond)
				u, ok := users[id]
				if !ok {
					return user{}, &reactive.StatusError{Status: http.StatusNotFound, Reason: "user " + id}
				}
				return u, nil
			})
		})

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		found, err := reactive.Await(ctx, p)
		if err != nil {
			status := reactive.StatusOf(err)
			if status == 0 {
				status = http.StatusInternalServerError
			}
			if errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
			http.Error(w, strings.TrimSpace(err.Error()), status)
			return
		}
		writeJSON(w, found[0])
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	_ = json.NewEncoder(w).Encode(v)
}
