package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/database"
	"github.com/stemsi/presensi-backend/internal/logger"
	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/repository"
	"github.com/stemsi/presensi-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	groupRepo := repository.NewGroupRepository(pool)
	groupService := service.NewGroupService(groupRepo)

	fmt.Println("=== Seeding Groups ===")

	groups := []model.Group{
		{Name: "X TKJ 1", Code: "X-TKJ-1"},
		{Name: "X TKJ 2", Code: "X-TKJ-2"},
		{Name: "XI TKJ 1", Code: "XI-TKJ-1"},
		{Name: "XI TKJ 2", Code: "XI-TKJ-2"},
		{Name: "XII TKJ 1", Code: "XII-TKJ-1"},
		{Name: "XII TKJ 2", Code: "XII-TKJ-2"},
	}

	successCount := 0
	for i := range groups {
		g := groups[i]
		if err := groupService.Create(ctx, &g); err != nil {
			if errors.Is(err, repository.ErrDuplicateGroupCode) {
				fmt.Printf("Skipped %s (already exists)\n", g.Code)
				continue
			}
			log.Fatal().Err(err).Str("code", g.Code).Msg("Failed to create group")
		}
		fmt.Printf("Created %s with ID: %d\n", g.Code, g.ID)
		successCount++
	}

	fmt.Printf("\nDone. %d group(s) created.\n", successCount)
}
