package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifyPostsWebhook(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL).Notify(context.Background(), Summary{
		RunID: "r1", Category: "chair", Status: "succeeded", Items: 10,
		Swaps: map[string]int{"single": 2, "zero": 1},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if text, _ := got["text"].(string); !strings.Contains(text, "chair") {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["blocks"]; !ok {
		t.Error("payload has no blocks")
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	if n := NewSlack(""); n != nil {
		t.Fatal("empty url should disable notifications")
	}
	var n *Slack
	if err := n.Notify(context.Background(), Summary{}); err != nil {
		t.Fatal(err)
	}
}

func TestFormatCountsSorted(t *testing.T) {
	if got := formatCounts(map[string]int{"zero": 1, "fallback": 3}); got != "fallback=3 zero=1" {
		t.Errorf("got %q", got)
	}
}
