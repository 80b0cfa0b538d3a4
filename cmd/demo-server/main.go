// Demo server: in-memory storage, no auth, a handful of routes for poking
// at the engine with curl. Not for production.
package main

import (
	"log/slog"
	"net/http"
	"os"

	mem "typequest/adapters/memory"
	"typequest/api/httpapi"
	"typequest/engine"
	"typequest/quest"
	"typequest/realtime"
)

func main() {
	// readable text logging for development
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	svc := quest.New(
		quest.WithStorage(mem.New()),
		quest.WithDispatchMode(engine.DispatchSync),
		quest.WithRealtime(hub),
		quest.WithCommands([]string{"play", "stats", "daily", "leaderboard", "help"}),
	)

	handler := httpapi.NewMux(svc, hub, httpapi.Options{AllowCORSOrigin: "*"})

	slog.Info("starting demo server on :8080")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
