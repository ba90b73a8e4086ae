//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// The worker runs against a token FCM will reject as invalid, so the
// delivery must land in FAILED with processed_at set.
func TestPushWorker_BadTokenEndsFailed(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.TaskTopic)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	owner := uuid.New()
	due := time.Now().UTC().Add(-time.Minute)
	// Disabled so the dispatcher leaves it alone; the delivery is seeded by
	// hand below.
	ruleID := SeedRule(t, db, owner, "08:00", "DAILY", due)
	if _, err := db.Exec(`UPDATE notification_rules SET enabled = FALSE WHERE id = $1`, ruleID.String()); err != nil {
		t.Fatalf("[db] disable rule: %v", err)
	}

	deliveryID := SeedDelivery(t, db, ruleID, due, `{"title":"t","body":"b"}`)

	PublishJSON(t, cfg.KafkaBootstrap, cfg.TaskTopic, []byte(deliveryID.String()), taskMsg{
		DeliveryID: deliveryID,
		Token:      "definitely-not-a-registered-token",
		Title:      "t",
		Body:       "b",
	})

	status := WaitDeliveryTerminal(t, db, deliveryID, 5*time.Minute)
	if status != "FAILED" {
		t.Fatalf("expected FAILED, got %s", status)
	}
}

func TestPushWorker_UnknownDeliveryDropped(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.TaskTopic)

	PublishJSON(t, cfg.KafkaBootstrap, cfg.TaskTopic, []byte("unknown"), taskMsg{
		DeliveryID: uuid.New(),
		Token:      "whatever",
		Title:      "t",
		Body:       "b",
	})
	// Nothing to assert beyond the worker not wedging; give it a moment and
	// make sure the broker is still reachable.
	time.Sleep(3 * time.Second)
	WaitTCP(t, "kafka", cfg.KafkaBootstrap, 10*time.Second)
}
