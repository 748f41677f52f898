package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/cloudvision/internal/application"
	"github.com/bryanwahyu/cloudvision/internal/application/session"
	"github.com/bryanwahyu/cloudvision/internal/config"
	"github.com/bryanwahyu/cloudvision/internal/domain/analysis"
	"github.com/bryanwahyu/cloudvision/internal/domain/identity"
	"github.com/bryanwahyu/cloudvision/internal/domain/storage"
	openaivision "github.com/bryanwahyu/cloudvision/internal/infra/ai/openai"
	firebaseauth "github.com/bryanwahyu/cloudvision/internal/infra/auth/firebase"
	minioStore "github.com/bryanwahyu/cloudvision/internal/infra/storage"
	"github.com/bryanwahyu/cloudvision/internal/presentation/term"
)

func main() {
	// .env is optional; deployments can set the environment directly
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// A client that fails to initialize is reported once; the session
	// still starts and operations needing it fail with a configuration
	// error instead of crashing.
	var auth identity.Authenticator
	if c, err := firebaseauth.New(cfg.Firebase.APIKey, firebaseauth.WithBaseURL(cfg.Firebase.BaseURL)); err != nil {
		log.Printf("identity init error: %v", err)
	} else {
		auth = c
	}

	var analyzer analysis.Analyzer
	switch {
	case cfg.OpenAI.APIKey == "":
		log.Printf("vision init error: api key missing")
	case cfg.OpenAI.BaseURL != "":
		analyzer = openaivision.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	default:
		analyzer = openaivision.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	var blobs storage.BlobStore
	if st, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	); err != nil {
		log.Printf("minio init error: %v", err)
	} else {
		blobs = st
	}

	sink := session.NewChannelSink(64)
	svc := session.New(auth, analyzer, blobs, application.SystemClock{}, sink)

	ui := term.New(svc, sink, os.Stdin, os.Stdout)
	if err := ui.Run(ctx); err != nil {
		log.Fatalf("session error: %v", err)
	}
}
