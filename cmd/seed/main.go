package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"subscription-billing/internal/config"
	"subscription-billing/internal/domain/model"
	pg "subscription-billing/internal/infra/db/postgres"
	"subscription-billing/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool), cfg.Billing.DefaultPlanID)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, %s)\n", p.Name, p.PricingDisplay(), p.TrialDisplay())
		}
		return
	}

	seed := []struct {
		Name        string
		PriceCents  int64
		Unit        model.TimeUnit
		Period      int
		TrialUnit   model.TimeUnit
		TrialPeriod int
		Permissions []string
	}{
		{"Free", 0, model.UnitMonth, 1, model.UnitWeek, 0, nil},
		{"Silver", 1700, model.UnitWeek, 1, model.UnitWeek, 1, []string{"content.premium"}},
		{"Gold", 4900, model.UnitMonth, 1, model.UnitWeek, 2, []string{"content.premium", "content.archive"}},
		{"Lifetime", 19900, model.UnitNone, 0, model.UnitWeek, 0, []string{"content.premium", "content.archive"}},
	}
	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.PriceCents, s.Unit, s.Period, s.TrialUnit, s.TrialPeriod, s.Permissions)
		if err != nil {
			log.Fatalf("seed plan %s: %v", s.Name, err)
		}
		fmt.Printf("created %s (%s)\n", p.Name, p.PricingDisplay())
	}
}
