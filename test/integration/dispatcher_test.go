//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type taskMsg struct {
	DeliveryID uuid.UUID         `json:"delivery_id"`
	Token      string            `json:"token"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Metadata   map[string]string `json:"metadata"`
}

func TestDispatcher_DueRuleFansOutPerDevice(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.TaskTopic)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	owner := uuid.New()
	tokenA := "it-token-" + uuid.NewString()[:8]
	tokenB := "it-token-" + uuid.NewString()[:8]
	SeedDevice(t, db, owner, tokenA)
	SeedDevice(t, db, owner, tokenB)

	due := time.Now().UTC().Add(-time.Minute)
	ruleID := SeedRule(t, db, owner, "08:00", "DAILY", due)

	WaitDeliveries(t, db, ruleID, 2, 90*time.Second)

	next, enabled := RuleNextRun(t, db, ruleID)
	if !enabled {
		t.Fatalf("daily rule should stay enabled")
	}
	if next == nil || !next.After(time.Now().UTC()) {
		t.Fatalf("next_run not advanced: %v", next)
	}

	seen := map[string]bool{}
	group := UniqueGroup("it-dispatcher")
	deadline := time.Now().Add(60 * time.Second)
	for len(seen) < 2 && time.Now().Before(deadline) {
		msg, ok := ReadOneJSON[taskMsg](t, cfg.KafkaBootstrap, cfg.TaskTopic, group, 20*time.Second)
		if !ok {
			continue
		}
		if msg.Token != tokenA && msg.Token != tokenB {
			continue // another test's traffic
		}
		if msg.Title == "" || msg.Body == "" {
			t.Fatalf("task missing payload: %+v", msg)
		}
		if msg.Metadata["rule_id"] != ruleID.String() {
			t.Fatalf("task rule_id mismatch: %+v", msg)
		}
		seen[msg.Token] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected tasks for both devices, saw %v", seen)
	}
}

func TestDispatcher_OnceRuleDisabledAfterFire(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.TaskTopic)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	owner := uuid.New()
	SeedDevice(t, db, owner, "it-token-"+uuid.NewString()[:8])

	due := time.Now().UTC().Add(-time.Minute)
	ruleID := SeedRule(t, db, owner, "08:00", "ONCE", due)

	WaitDeliveries(t, db, ruleID, 1, 90*time.Second)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		next, enabled := RuleNextRun(t, db, ruleID)
		if next == nil && !enabled {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("ONCE rule should be disabled with no next_run after firing")
}
