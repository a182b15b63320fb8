package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

func TestWebhookNotifierDelivers(t *testing.T) {
	var mu sync.Mutex
	var received []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, zap.NewNop())
	n.Notify(context.Background(), ExecutionSettled, map[string]string{"plan": "p1"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		count := len(received)
		mu.Unlock()
		if count == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("webhook never delivered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if got := received[0]["kind"]; got != "execution_settled" {
		t.Errorf("kind = %v, want execution_settled", got)
	}
	if received[0]["payload"] == nil {
		t.Error("payload missing")
	}
}

func TestWebhookNotifierSwallowsDeliveryFailure(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:0/hook", zap.NewNop())

	// Must not panic or block the caller.
	done := make(chan struct{})
	go func() {
		n.Notify(context.Background(), ExposureWarning, "unhedged position")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked the caller")
	}
}

func TestMultiFansOut(t *testing.T) {
	var mu sync.Mutex
	counts := make(map[string]int)

	recorder := func(name string) Notifier {
		return notifierFunc(func(_ context.Context, kind Kind, _ any) {
			mu.Lock()
			defer mu.Unlock()
			counts[name]++
		})
	}

	multi := Multi{recorder("a"), recorder("b")}
	multi.Notify(context.Background(), OpportunityFound, nil)

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("counts = %v, want each 1", counts)
	}
}

type notifierFunc func(ctx context.Context, kind Kind, payload any)

func (f notifierFunc) Notify(ctx context.Context, kind Kind, payload any) { f(ctx, kind, payload) }
