package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/internal/config"
	"github.com/jrsteele09/go-session-service/server"
	fakeuserrepo "github.com/jrsteele09/go-session-service/users/repofake"
	userspostgres "github.com/jrsteele09/go-session-service/users/postgres"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	repos, cleanup, err := buildRepos(c)
	if err != nil {
		return fmt.Errorf("buildRepos: %w", err)
	}
	defer cleanup()

	srv, err := server.New(c, repos)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildRepos selects the Postgres store when DATABASE_URL is configured,
// falling back to the in-memory store for local development.
func buildRepos(c config.Config) (auth.Repos, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		log.Printf("DATABASE_URL not set, using in-memory user store\n")
		return auth.Repos{Users: fakeuserrepo.NewFakeUserRepo()}, func() {}, nil
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return auth.Repos{}, nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	repo := userspostgres.NewUserRepo(pool)
	if err := repo.Migrate(context.Background()); err != nil {
		pool.Close()
		return auth.Repos{}, nil, fmt.Errorf("migrate: %w", err)
	}

	return auth.Repos{Users: repo}, pool.Close, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
