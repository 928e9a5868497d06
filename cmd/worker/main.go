package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/model-my-watershed/mmw-backend/config"
	"github.com/model-my-watershed/mmw-backend/internal/bootstrap"
	"github.com/model-my-watershed/mmw-backend/internal/export/domain"
	"github.com/model-my-watershed/mmw-backend/internal/export/jobs"
	exportrepo "github.com/model-my-watershed/mmw-backend/internal/export/repository"
	exportsvc "github.com/model-my-watershed/mmw-backend/internal/export/service"
	"github.com/model-my-watershed/mmw-backend/internal/hydroshare"
	hsrepo "github.com/model-my-watershed/mmw-backend/internal/hydroshare/repository"
	"github.com/model-my-watershed/mmw-backend/internal/projects"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
)

const popTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
	if err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	cancel()
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	hs := hydroshare.NewService(hydroshare.Options{
		BaseURL:      cfg.HydroShare.BaseURL,
		ClientID:     cfg.HydroShare.ClientID,
		ClientSecret: cfg.HydroShare.ClientSecret,
		RedirectURL:  cfg.HydroShare.RedirectURL,
	}, hsrepo.NewTokenRepo(db))

	projectRepo := projects.NewRepo(db)
	jobRepo := jobs.NewRepo(rdb)
	exports := exportsvc.NewExportService(
		exportsvc.NewHydroShareProvider(hs), exportrepo.NewLinkRepo(db), projectRepo)
	dispatcher := exportsvc.NewDispatcher(jobRepo)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Export worker started, waiting for queued exports")
	for {
		select {
		case <-runCtx.Done():
			log.Println("Export worker shutting down")
			return
		default:
		}

		q, err := jobRepo.Dequeue(runCtx, popTimeout)
		if err != nil {
			if runCtx.Err() != nil {
				continue
			}
			log.Printf("Dequeue failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if q == nil {
			continue
		}

		runExport(dispatcher, exports, projectRepo, *q)
	}
}

// runExport re-syncs one project's files to its linked HydroShare resource.
func runExport(dispatcher *exportsvc.Dispatcher, exports *exportsvc.ExportService,
	projectRepo *projects.Repo, q jobs.QueuedExport) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dispatcher.Execute(ctx, q.JobID, func(ctx context.Context) (any, error) {
		project, err := projectRepo.Get(ctx, q.UserID, q.ProjectID)
		if err != nil {
			return nil, err
		}

		link, err := exports.Update(ctx, q.UserID, project, snapshotFiles(project))
		if err != nil {
			return nil, err
		}
		log.Printf("Autosync export complete project=%d resource=%s", q.ProjectID, link.Resource)
		return link, nil
	})
}

// snapshotFiles serializes the project's current state for upload alongside
// its area of interest.
func snapshotFiles(p *pdomain.Project) []domain.FileSpec {
	snapshot, err := json.MarshalIndent(map[string]any{
		"name":          p.Name,
		"model_package": p.ModelPackage,
		"gis_data":      p.GISData,
	}, "", "  ")
	if err != nil {
		return nil
	}
	return []domain.FileSpec{domain.InlineText("project.json", string(snapshot))}
}
