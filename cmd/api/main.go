package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"harborlist.org/internal/audit"
	"harborlist.org/internal/authz"
	"harborlist.org/internal/httpapi"
	"harborlist.org/internal/obs"
	"harborlist.org/internal/profile"
)

var version = "0.4.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("HARBORLIST_COMMIT"))

	dsn := os.Getenv("HARBORLIST_PG_DSN")
	if dsn == "" {
		log.Fatal("HARBORLIST_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	var store profile.Store = profile.NewPGStore(db)
	if addr := os.Getenv("HARBORLIST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("HARBORLIST_REDIS_PASSWORD"),
		})
		store = profile.NewCachedStore(store, client, 30*time.Second)
	}

	verifier, err := authz.NewHSVerifier(map[string]string{
		envOr("HARBORLIST_CUSTOMER_ISSUER", "harborlist-customers"): mustEnv("HARBORLIST_CUSTOMER_SECRET"),
		envOr("HARBORLIST_STAFF_ISSUER", "harborlist-staff"):        mustEnv("HARBORLIST_STAFF_SECRET"),
	})
	if err != nil {
		log.Fatalf("verifier: %v", err)
	}

	recorder := audit.NewRecorder(audit.LogSink{}, audit.NewPGSink(db))

	staffTTL := authz.DefaultStaffSessionTTL
	if raw := os.Getenv("HARBORLIST_STAFF_SESSION_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse HARBORLIST_STAFF_SESSION_TTL: %v", err)
		}
		staffTTL = parsed
	}

	authzSvc, err := authz.NewService(verifier, store,
		authz.WithPool(authz.Pool{
			Domain:   authz.DomainCustomer,
			Issuer:   envOr("HARBORLIST_CUSTOMER_ISSUER", "harborlist-customers"),
			Audience: os.Getenv("HARBORLIST_CUSTOMER_AUDIENCE"),
		}),
		authz.WithPool(authz.Pool{
			Domain:   authz.DomainStaff,
			Issuer:   envOr("HARBORLIST_STAFF_ISSUER", "harborlist-staff"),
			Audience: os.Getenv("HARBORLIST_STAFF_AUDIENCE"),
		}),
		authz.WithAuditRecorder(recorder),
		authz.WithStaffSessionTTL(staffTTL),
	)
	if err != nil {
		log.Fatalf("authz service: %v", err)
	}

	profileSvc, err := profile.NewService(store)
	if err != nil {
		log.Fatalf("profile service: %v", err)
	}

	probe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(probe, version, authzSvc, profileSvc)

	srv := &http.Server{
		Addr:              envOr("HARBORLIST_HTTP_ADDR", ":8080"),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting %s %s on %s", "harborlist-authz", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	var grpcSrv *grpc.Server
	if addr := os.Getenv("HARBORLIST_GRPC_ADDR"); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		httpapi.NewHealthServer(probe).Register(grpcSrv)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	recorder.Drain()
	_ = db.Close()
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s is required", key)
	}
	return v
}
