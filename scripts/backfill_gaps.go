// Manual gap-analysis backfill.
//
// Gap extraction normally runs when a test is finalized. Tests completed
// before gap extraction was deployed, or whose analysis failed at the time,
// have no gap rows; this script re-runs the analysis for them.
//
// Usage: go run scripts/backfill_gaps.go

package main

import (
	"context"
	"log"

	"gapmentor_backend/internal/config"
	"gapmentor_backend/internal/repository"
	"gapmentor_backend/internal/service"
	"gapmentor_backend/pkg/database"
	"gapmentor_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	testRepo := repository.NewTestRepository(db)
	gapRepo := repository.NewGapRepository(db)
	aiService := service.NewAIService(cfg.AI)
	gapService := service.NewGapService(aiService, gapRepo)

	var testIDs []uint
	err = db.Raw(`SELECT t.id FROM tests t
		LEFT JOIN gaps g ON g.test_id = t.id
		WHERE t.completed = 1 AND t.deleted_at IS NULL AND g.id IS NULL`).
		Scan(&testIDs).Error
	if err != nil {
		log.Fatalf("failed to list tests without gaps: %v", err)
	}

	log.Printf("found %d completed tests without gap analysis", len(testIDs))

	ctx := context.Background()
	analyzed := 0
	for _, id := range testIDs {
		test, err := testRepo.FindWithQuestions(id)
		if err != nil {
			log.Printf("test %d: load failed: %v", id, err)
			continue
		}
		gaps, err := gapService.AnalyzeTest(ctx, test)
		if err != nil {
			log.Printf("test %d: analysis failed: %v", id, err)
			continue
		}
		analyzed++
		log.Printf("test %d: %d gaps", id, len(gaps))
	}

	log.Printf("done, analyzed %d of %d tests", analyzed, len(testIDs))
}
