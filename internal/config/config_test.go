package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "TURN_LIMIT", "MISMATCH_DELAY_MS", "JWT_EXPIRES_DAYS", "NODE_ENV", "CATALOG_FILE", "SESSION_IDLE_MINUTES"} {
		t.Setenv(k, "")
	}
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "5175" || c.TurnLimit != 15 || c.MismatchDelay != time.Second || c.JWTExpiryDays != 14 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Production || c.CatalogFile != "" || c.SessionIdle != time.Hour {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TURN_LIMIT", "20")
	t.Setenv("MISMATCH_DELAY_MS", "250")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("CATALOG_FILE", "/etc/memory/catalog.txt")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.TurnLimit != 20 || c.MismatchDelay != 250*time.Millisecond || !c.Production {
		t.Fatalf("config = %+v", c)
	}
	gc := c.Game([]string{"a"})
	if gc.TurnLimit != 20 || gc.MismatchDelay != 250*time.Millisecond || len(gc.Catalog) != 1 {
		t.Fatalf("game config = %+v", gc)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"TURN_LIMIT":           "zero",
		"MISMATCH_DELAY_MS":    "-5",
		"JWT_EXPIRES_DAYS":     "soon",
		"SESSION_IDLE_MINUTES": "-1",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("%s=%s accepted", k, v)
			}
		})
	}
	t.Run("non-positive turn limit", func(t *testing.T) {
		t.Setenv("TURN_LIMIT", "0")
		if _, err := FromEnv(); err == nil {
			t.Fatal("TURN_LIMIT=0 accepted")
		}
	})
}
