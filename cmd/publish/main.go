// Command publish sends one signup event to a running verifier, either through
// a Redis channel or as a signed Pub/Sub push request.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yourusername/verification-mailer/internal/config"
	"github.com/yourusername/verification-mailer/internal/domain/entity"
	"github.com/yourusername/verification-mailer/internal/pubsub"
	"github.com/yourusername/verification-mailer/pkg/auth"
	"github.com/yourusername/verification-mailer/pkg/database"
)

func main() {
	var event entity.SignupEvent
	flag.StringVar(&event.FirstName, "first-name", "", "first name of the new user")
	flag.StringVar(&event.Username, "username", "", "email address of the new user")
	flag.StringVar(&event.Hostname, "hostname", "localhost", "host used in the verification link")
	flag.StringVar(&event.VerificationAPI, "verification-api", "api/verify", "path used in the verification link")
	pushURL := flag.String("push-url", "", "POST to this push endpoint instead of publishing to Redis")
	flag.Parse()

	if event.Username == "" {
		log.Fatal("-username is required")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	data, err := pubsub.EncodeSignupEvent(&event)
	if err != nil {
		log.Fatalf("Failed to encode event: %v", err)
	}
	msg := &pubsub.Message{
		Data:        data,
		MessageID:   uuid.NewString(),
		PublishTime: time.Now().UTC().Format(time.RFC3339Nano),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if *pushURL != "" {
		if err := push(ctx, cfg.Push, *pushURL, msg); err != nil {
			log.Fatalf("Push failed: %v", err)
		}
		return
	}

	if !cfg.Redis.Enabled() {
		log.Fatal("REDIS_CHANNEL and REDIS_ADDR are required when -push-url is not set")
	}
	client, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	publisher, err := pubsub.NewRedisPublisher(client, cfg.Redis.Channel)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	receivers, err := publisher.Publish(ctx, msg)
	if err != nil {
		log.Fatalf("Publish failed: %v", err)
	}
	if receivers == 0 {
		log.Printf("Warning: no subscribers on channel %s", cfg.Redis.Channel)
	}
}

func push(ctx context.Context, cfg config.PushConfig, url string, msg *pubsub.Message) error {
	body, err := json.Marshal(pubsub.PushEnvelope{Message: *msg, Subscription: "local/publish"})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if cfg.AuthSecret != "" {
		tokens, err := auth.NewPushTokenService(cfg.AuthSecret, cfg.AuthAudience)
		if err != nil {
			return err
		}
		token, err := tokens.GenerateToken("cmd/publish", "local/publish", time.Minute)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push endpoint answered %s", resp.Status)
	}
	log.Printf("Message %s acknowledged with %s", msg.MessageID, resp.Status)
	return nil
}
