package storage

import (
	"os"
	"testing"

	"rakebot/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *Storage {
	dbName := "test.db"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&domain.StrategyState{}, &domain.AppConfig{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(dbName)
	})

	return &Storage{db: db}
}

func TestSaveAndGetStrategyState(t *testing.T) {
	s := setupTestDB(t)

	state := &domain.StrategyState{
		Ticker:    "BTC",
		Principal: "100",
		Reserve:   "20",
	}

	// 1. Create
	if err := s.SaveStrategyState(state); err != nil {
		t.Fatalf("SaveStrategyState failed: %v", err)
	}

	// 2. Get
	fetched, err := s.GetStrategyState("BTC")
	if err != nil {
		t.Fatalf("GetStrategyState failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("fetched state is nil")
	}
	if fetched.Reserve != "20" {
		t.Errorf("expected reserve 20, got %s", fetched.Reserve)
	}
}

func TestUpdateStrategyState(t *testing.T) {
	s := setupTestDB(t)
	state := &domain.StrategyState{Ticker: "BTC", Principal: "100", Reserve: "0"}
	s.SaveStrategyState(state)

	// Update
	state.Reserve = "35.5"
	if err := s.SaveStrategyState(state); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, _ := s.GetStrategyState("BTC")
	if fetched.Reserve != "35.5" {
		t.Errorf("expected reserve '35.5', got '%s'", fetched.Reserve)
	}
}

func TestGetStrategyStateMissing(t *testing.T) {
	s := setupTestDB(t)

	fetched, err := s.GetStrategyState("NOPE")
	if err != nil {
		t.Fatalf("GetStrategyState failed: %v", err)
	}
	if fetched != nil {
		t.Error("expected nil for missing ticker")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveConfig("last_run", "2025-11-02"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := s.SaveConfig("mode", "paper"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	cfgMap, err := s.LoadConfigMap()
	if err != nil {
		t.Fatalf("LoadConfigMap failed: %v", err)
	}
	if cfgMap["mode"] != "paper" {
		t.Errorf("expected mode=paper, got %s", cfgMap["mode"])
	}
	if len(cfgMap) != 2 {
		t.Errorf("expected 2 entries, got %d", len(cfgMap))
	}
}
