package service

import (
	"testing"
	"time"

	"rakebot/internal/domain"
)

func TestPriceMonitor_TracksLatest(t *testing.T) {
	monitor := NewPriceMonitor(nil)

	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("50000"), Time: time.Now()})
	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("50100"), Time: time.Now()})

	last, ok := monitor.Last("BTC-USD")
	if !ok {
		t.Fatal("BTC-USD should be tracked")
	}
	if !last.Price.Equal(dec("50100")) {
		t.Errorf("Expected 50100, got %s", last.Price)
	}

	if _, ok := monitor.Last("ETH-USD"); ok {
		t.Error("ETH-USD should not be tracked")
	}
}

func TestPriceMonitor_AlertFiresOnceWhenNotPersistent(t *testing.T) {
	alert := domain.NewAlertConfig("BTC", dec("51000"), dec("50000"), false)
	monitor := NewPriceMonitor([]*domain.AlertConfig{alert})

	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("50500")})
	if !alert.IsActive() {
		t.Fatal("Alert should still be armed below target")
	}

	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("51200")})
	if alert.IsActive() {
		t.Error("Non-persistent alert should disarm after firing")
	}
}

func TestPriceMonitor_PersistentAlertStaysArmed(t *testing.T) {
	alert := domain.NewAlertConfig("BTC", dec("49000"), dec("50000"), true)
	monitor := NewPriceMonitor([]*domain.AlertConfig{alert})

	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("48000")})
	monitor.process(domain.Ticker{ProductID: "BTC-USD", Price: dec("47000")})

	if !alert.IsActive() {
		t.Error("Persistent alert should stay armed")
	}
}

func TestPriceMonitor_IgnoresOtherProducts(t *testing.T) {
	alert := domain.NewAlertConfig("BTC", dec("51000"), dec("50000"), false)
	monitor := NewPriceMonitor([]*domain.AlertConfig{alert})

	monitor.process(domain.Ticker{ProductID: "ETH-USD", Price: dec("99999")})

	if !alert.IsActive() {
		t.Error("Alert for BTC must not fire on ETH ticks")
	}
}
