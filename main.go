package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/choreward/backend/notifications/email"
	"github.com/choreward/backend/queue"
	"github.com/choreward/backend/server"
	"github.com/choreward/backend/server/auth"
	"github.com/choreward/backend/server/handlers"
	"github.com/choreward/backend/storage/cache"
	storage "github.com/choreward/backend/storage/persistent"
	"github.com/choreward/backend/uploads"
)

const (
	sessionCacheTTL  = 24 * time.Hour
	welcomeProducers = 2
	welcomeConsumers = 2
)

func main() {
	// Load the .env file
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Error loading .env file")
	}

	// Read the environment variables
	addr := os.Getenv("SERVER_ADDR")
	dbURI := os.Getenv("MONGODB_URI")
	dbName := os.Getenv("DB_NAME")
	signingKey := os.Getenv("JWT_SIGNING_KEY")
	redisURL := os.Getenv("REDIS_URL")
	rabbitMQURL := os.Getenv("RABBITMQ_URL")
	uploadDir := os.Getenv("UPLOAD_DIR")
	baseURL := os.Getenv("BASE_URL")

	if addr == "" {
		addr = ":8080"
	}
	if dbName == "" {
		dbName = "choreward"
	}
	if signingKey == "" {
		log.Fatal("JWT_SIGNING_KEY must be set")
	}
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080/uploads"
	}

	store, err := storage.NewStorage(dbName, dbURI)
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
	}
	defer store.Disconnect()

	// Redis is optional; without it session lookups hit the database.
	var c cache.CacheInterface
	if redisURL != "" {
		c, err = cache.NewCache(redisURL, sessionCacheTTL)
		if err != nil {
			log.Fatalf("Error connecting to Redis: %v", err)
		}
		defer c.Disconnect()
	}

	images, err := uploads.NewDiskStore(uploadDir, baseURL)
	if err != nil {
		log.Fatalf("Error preparing upload directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The welcome queue needs RabbitMQ, SMTP and the dedup cache; without
	// all three, registration simply skips the welcome mail.
	var welcome *queue.Queue
	if rabbitMQURL != "" && c != nil {
		mailer, err := newMailer()
		if err != nil {
			log.Fatalf("Error connecting to SMTP: %v", err)
		}
		if mailer != nil {
			welcome, err = queue.BuildWelcomeQueue(rabbitMQURL, welcomeProducers, welcomeConsumers, c, mailer)
			if err != nil {
				log.Fatalf("Error connecting to RabbitMQ: %v", err)
			}
			welcome.StartConsumers(ctx)
		}
	}

	h := handlers.New(store, c, auth.New(signingKey), images, welcome)
	router := server.NewRouter(h, uploadDir)

	log.Printf("Listening on %s", addr)
	log.Fatal(server.Start(addr, router))
}

// newMailer builds the SMTP mailer from SMTP_* variables, returning nil when
// they are not configured.
func newMailer() (*email.Mailer, error) {
	host := os.Getenv("SMTP_HOST")
	sender := os.Getenv("SMTP_SENDER")
	if host == "" || sender == "" {
		return nil, nil
	}
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return email.New(host, port, sender, os.Getenv("SMTP_PASSWORD"))
}
