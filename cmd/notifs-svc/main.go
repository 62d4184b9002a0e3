package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/wire"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	app, err := wire.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, app)
	stop()
	_ = app.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves HTTP and gRPC health until ctx is done or a server fails.
func run(ctx context.Context, app *wire.Application) error {
	logger := app.Logger.Named("main")

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port),
		Handler:        setupRouter(app),
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", app.Config.Server.GRPCPort))
	if err != nil {
		logger.Errorw("failed to listen", "port", app.Config.Server.GRPCPort, "error", err)
		return fmt.Errorf("grpc listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infow("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Infow("gRPC health server listening", "addr", lis.Addr().String())
		if err := app.Health.GRPC.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.Health.Watch(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app.Health.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("server stopped with error", "error", err)
		return err
	}
	logger.Info("Server gracefully stopped")
	return nil
}

func setupRouter(app *wire.Application) *mux.Router {
	router := mux.NewRouter()

	router.Use(common.CORS)
	router.Use(common.RequestLogger(app.Logger.Named("access")))

	app.Handler.RegisterRoutes(router)

	return router
}
