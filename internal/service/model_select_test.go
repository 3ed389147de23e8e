package service

import (
	"testing"

	"pomelo/internal/model"
)

func TestSelectModel(t *testing.T) {
	cfg := &model.ChatRuntimeConfig{
		PrimaryModel:  "model-primary",
		FallbackModel: "model-fallback",
	}

	if got := SelectModel(true, cfg); got != "model-primary" {
		t.Fatalf("expected primary model when granted, got %q", got)
	}
	if got := SelectModel(false, cfg); got != "model-fallback" {
		t.Fatalf("expected fallback model when denied, got %q", got)
	}
}
