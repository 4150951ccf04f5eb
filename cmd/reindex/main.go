package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"tamasya/internal/config"
	"tamasya/internal/database"
	"tamasya/internal/logger"
	"tamasya/internal/repository"
	"tamasya/internal/search"
)

const reindexPageSize = 100

func main() {
	var activityID int64
	flag.Int64Var(&activityID, "activity-id", 0, "Reindex only this activity (0 = all)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting catalog reindex")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	esClient, err := search.NewElasticsearchClient(cfg.Search)
	if err != nil {
		slog.Error("Failed to connect to Elasticsearch", "error", err)
		os.Exit(1)
	}

	activityRepo := repository.NewActivityRepository(db)

	if err := reindex(context.Background(), activityRepo, esClient, activityID); err != nil {
		slog.Error("Reindex failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Catalog reindex completed successfully")
}

func reindex(ctx context.Context, activityRepo *repository.ActivityRepository, esClient *search.ElasticsearchClient, activityID int64) error {
	start := time.Now()

	if activityID != 0 {
		activity, err := activityRepo.GetByID(ctx, activityID)
		if err != nil {
			return fmt.Errorf("failed to load activity %d: %w", activityID, err)
		}
		if activity == nil {
			return fmt.Errorf("activity %d not found", activityID)
		}
		if err := esClient.IndexActivity(ctx, activity); err != nil {
			return fmt.Errorf("failed to index activity %d: %w", activityID, err)
		}
		slog.Info("Reindexed activity", "activity_id", activityID)
		return nil
	}

	indexed := 0
	for page := 1; ; page++ {
		activities, err := activityRepo.List(ctx, page, reindexPageSize)
		if err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}
		if len(activities) == 0 {
			break
		}

		for i := range activities {
			if err := esClient.IndexActivity(ctx, &activities[i]); err != nil {
				slog.Error("Failed to index activity", "activity_id", activities[i].ID, "error", err)
				continue
			}
			indexed++
		}

		if len(activities) < reindexPageSize {
			break
		}
	}

	slog.Info("Reindex finished", "indexed", indexed, "elapsed", time.Since(start).String())
	return nil
}
