package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "6666" {
		t.Errorf("expected default port 6666, got %s", cfg.Server.Port)
	}
	if cfg.Quiz.SessionTTL != 30*time.Minute {
		t.Errorf("expected default session TTL 30m, got %s", cfg.Quiz.SessionTTL)
	}
	if cfg.Sweep.LoginThreshold != 30*24*time.Hour {
		t.Errorf("expected default login threshold 720h, got %s", cfg.Sweep.LoginThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	if cfg.Server.Port != "7777" {
		t.Errorf("expected port 7777 from env, got %s", cfg.Server.Port)
	}
	if cfg.Quiz.SessionTTL != 45*time.Minute {
		t.Errorf("expected session TTL 45m from env, got %s", cfg.Quiz.SessionTTL)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("expected redis DB 3 from env, got %d", cfg.Redis.DB)
	}
	if ServiceConfig != cfg {
		t.Error("expected Load to update ServiceConfig")
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	if cfg.Redis.DB != 0 {
		t.Errorf("expected fallback redis DB 0, got %d", cfg.Redis.DB)
	}
	if cfg.Quiz.SessionTTL != 30*time.Minute {
		t.Errorf("expected fallback session TTL 30m, got %s", cfg.Quiz.SessionTTL)
	}
}
