package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"glossa.dev/internal/auth"
	"glossa.dev/internal/httpapi"
	"glossa.dev/internal/obs"
	"glossa.dev/internal/translation"
	"glossa.dev/internal/translation/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// With a DSN both stores run on the shared pool and /readyz pings it.
	// Without one the service falls back to in-memory stores for local runs.
	var (
		db           *sql.DB
		translations translation.Service
		users        auth.Store
	)
	if dsn := os.Getenv("GLOSSA_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = store.DB()
		translations = store
		users = auth.NewPGStore(db)
	} else {
		log.Println("GLOSSA_PG_DSN not set, using in-memory stores")
		translations = translation.NewInMemory()
		users = auth.NewInMemoryStore()
	}

	addr := os.Getenv("GLOSSA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, translations, auth.NewService(users))

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second, // exports can stream for a while
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting glossa-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
