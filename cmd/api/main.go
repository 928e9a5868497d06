package main

import (
	"context"
	"log"
	"time"

	"github.com/model-my-watershed/mmw-backend/config"
	"github.com/model-my-watershed/mmw-backend/internal/auth"
	"github.com/model-my-watershed/mmw-backend/internal/bootstrap"
	cronjob "github.com/model-my-watershed/mmw-backend/internal/export/cron"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	exportrepo "github.com/model-my-watershed/mmw-backend/internal/export/repository"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	hsrepo "github.com/model-my-watershed/mmw-backend/internal/hydroshare/repository"

	fbauth "firebase.google.com/go/v4/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var fbClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		fbClient, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	} else {
		log.Println("Firebase credentials not set, using header-based auth")
	}

	hs := hydroshare.NewService(hydroshare.Options{
		BaseURL:      cfg.HydroShare.BaseURL,
		ClientID:     cfg.HydroShare.ClientID,
		ClientSecret: cfg.HydroShare.ClientSecret,
		RedirectURL:  cfg.HydroShare.RedirectURL,
	}, hsrepo.NewTokenRepo(db))

	scheduler := cronjob.NewScheduler(exportrepo.NewLinkRepo(db), jobs.NewRepo(rdb))
	scheduler.Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "mmw-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.App.AllowedOrigins,
		DB:             db,
		Redis:          rdb,
		HydroShare:     hs,
		FirebaseAuth:   fbClient,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
