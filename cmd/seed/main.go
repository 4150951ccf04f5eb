package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"tamasya/internal/config"
	"tamasya/internal/database"
	"tamasya/internal/models"
	"tamasya/internal/repository"
)

var (
	days   = flag.Int("days", 14, "Number of days of availability to generate per activity")
	dryRun = flag.Bool("dry-run", false, "Show what would be seeded without making changes")
)

type seedActivity struct {
	title      string
	location   string
	priceAdult int64
	priceChild int64
	minGroup   int
	maxGroup   int
	startTimes []string
	spots      int
}

var catalog = []seedActivity{
	{
		title:      "Mount Batur Sunrise Trek",
		location:   "Kintamani, Bali",
		priceAdult: 450000,
		priceChild: 315000,
		minGroup:   1,
		maxGroup:   12,
		startTimes: []string{"03:30:00"},
		spots:      12,
	},
	{
		title:      "Ubud Rice Terrace Cycling",
		location:   "Ubud, Bali",
		priceAdult: 350000,
		priceChild: 245000,
		minGroup:   2,
		maxGroup:   10,
		startTimes: []string{"08:00:00", "14:00:00"},
		spots:      10,
	},
	{
		title:      "Nusa Penida Snorkeling Day Trip",
		location:   "Nusa Penida",
		priceAdult: 850000,
		priceChild: 595000,
		minGroup:   1,
		maxGroup:   15,
		startTimes: []string{"07:00:00"},
		spots:      15,
	},
	{
		title:      "Balinese Cooking Class",
		location:   "Denpasar, Bali",
		priceAdult: 400000,
		priceChild: 280000,
		minGroup:   1,
		maxGroup:   8,
		startTimes: []string{"09:00:00", "16:00:00"},
		spots:      8,
	},
	{
		title:      "Uluwatu Temple Sunset & Kecak Dance",
		location:   "Uluwatu, Bali",
		priceAdult: 300000,
		priceChild: 210000,
		minGroup:   1,
		maxGroup:   20,
		startTimes: []string{"17:00:00"},
		spots:      20,
	},
}

func main() {
	flag.Parse()

	slog.Info("Starting catalog seeder...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	if err := seed(context.Background(), repos); err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Seeding completed successfully!")
}

func seed(ctx context.Context, repos *repository.Repositories) error {
	supplierID := int64(1)

	for _, item := range catalog {
		if *dryRun {
			slog.Info("Would seed activity",
				"title", item.title,
				"slots", len(item.startTimes)*(*days))
			continue
		}

		location := item.location
		priceChild := item.priceChild
		activity := &models.Activity{
			SupplierID:   supplierID,
			Title:        item.title,
			Location:     &location,
			PriceAdult:   item.priceAdult,
			PriceChild:   &priceChild,
			MinGroupSize: item.minGroup,
			MaxGroupSize: item.maxGroup,
			Currency:     "IDR",
			Status:       "active",
		}

		if err := repos.Activities.Create(ctx, activity); err != nil {
			return fmt.Errorf("failed to create activity %q: %w", item.title, err)
		}

		created := 0
		for day := 1; day <= *days; day++ {
			date := time.Now().AddDate(0, 0, day).Truncate(24 * time.Hour)
			for _, startTime := range item.startTimes {
				// Vary remaining capacity a little so lists look lived-in
				available := item.spots - rand.Intn(item.spots/3+1)
				slot := &models.AvailabilitySlot{
					ActivityID:     activity.ID,
					SlotDate:       date,
					StartTime:      startTime,
					TotalSpots:     item.spots,
					AvailableSpots: available,
					Status:         models.SlotOpen,
				}
				if err := repos.Slots.Create(ctx, slot); err != nil {
					return fmt.Errorf("failed to create slot for %q: %w", item.title, err)
				}
				created++
			}
		}

		slog.Info("Seeded activity", "activity_id", activity.ID, "title", item.title, "slots", created)
	}

	return nil
}
