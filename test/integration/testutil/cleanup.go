//go:build integration

package testutil

import (
	"context"
	"strings"
	"time"
)

// tables lists every application table. CASCADE covers the turfs -> accounts key.
var tables = []string{
	"event_outbox",
	"turfs",
	"accounts",
}

// CleanAll truncates all tables and resets sequences.
func (env *TestEnv) CleanAll() {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE"); err != nil {
		env.t.Fatalf("truncate: %v", err)
	}
}
