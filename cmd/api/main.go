package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-account-api/internal/application/account"
	"github.com/go-account-api/internal/application/verification"
	"github.com/go-account-api/internal/config"
	"github.com/go-account-api/internal/infrastructure/dynamo"
	"github.com/go-account-api/internal/infrastructure/smtp"
	transporthttp "github.com/go-account-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	codeRepo := dynamo.NewCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes)
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.PasswordMinLength)

	mailer := smtp.NewMailer(cfg)
	notifier := smtp.NewCodeSender(mailer, cfg.CodeTTL)

	generator := verification.NewGenerator(rand.NewSource(randomSeed()), cfg.CodeLength, cfg.CodeIDMax)
	codeSvc := verification.NewService(codeRepo, generator, notifier, verification.Config{
		TTL:          cfg.CodeTTL,
		IssueRetries: cfg.CodeIssueRetries,
	})
	accountSvc := account.NewService(userRepo, codeSvc, account.Config{AdminEmail: cfg.AdminEmail})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{Account: accountSvc})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepExpired(sweepCtx, codeSvc, cfg.SweepInterval)

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// sweepExpired periodically removes expired verification codes. Expired
// records are already invalid on lookup; the sweep just keeps the table from
// accumulating garbage.
func sweepExpired(ctx context.Context, svc verification.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ClearExpired(ctx, time.Now().UTC()); err != nil {
				log.Printf("WARN: expired code sweep failed: %v", err)
			}
		}
	}
}

// randomSeed seeds the code generator unpredictably from the OS entropy pool.
func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
