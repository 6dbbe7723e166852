package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/pthm/behavioral"
	"github.com/pthm/behavioral/behaviors/logger"
	"github.com/pthm/behavioral/behaviors/reveal"
)

// payloadKey signs command payloads. In production, load it from
// configuration.
const payloadKey = "example-key-must-be-32-bytes!!"

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	addr := ":8080"
	log.Info("starting server", "url", "http://localhost"+addr)
	if err := http.ListenAndServe(addr, newServer(log)); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newServer wires the FAQ pages behind the stamping middleware.
func newServer(log *slog.Logger) http.Handler {
	reg := behavioral.NewRegistry(behavioral.WithRegistryLogger(log))
	reg.Add(reveal.Entry(), logger.Entry())

	rt := behavioral.New(reg,
		behavioral.WithPayloadKey([]byte(payloadKey)),
		behavioral.WithLogger(log),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if err := behavioral.Render(w, r, page(rt, faqs)); err != nil {
			log.Error("render failed", "error", err)
		}
	})
	mux.HandleFunc("/faq/{index}", func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookupFAQ(r.PathValue("index"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		// Rendered without is attributes; the middleware stamps them.
		if err := behavioral.Render(w, r, entry(rt, e)); err != nil {
			log.Error("render failed", "error", err)
		}
	})

	return rt.Middleware(mux)
}
