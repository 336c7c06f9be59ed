package web

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/zigbee-relay/internal/status"
)

func testTracker() *status.Tracker {
	tr := status.NewTracker(time.Now(), status.Config{
		Broker:      "tcp://broker:1883",
		TopicPrefix: "zigbee-relay",
	})
	tr.SetOutputs(true, false)
	tr.SetJoined(true)
	tr.SetButtonState("idle")
	tr.SetVoltage(330)
	tr.SetBattery(36, 100)
	return tr
}

func TestIndexPage(t *testing.T) {
	s := New(":0", testTracker())

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 200 {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Zigbee Relay", "3.30", "3.6", "joined", "tcp://broker:1883"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q, want text/html", ct)
	}
}

func TestIndexNotFound(t *testing.T) {
	s := New(":0", testTracker())

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != 404 {
		t.Errorf("got status %d for unknown path, want 404", rec.Code)
	}
}

func TestJSONEndpoint(t *testing.T) {
	s := New(":0", testTracker())

	rec := httptest.NewRecorder()
	s.handleJSON(rec, httptest.NewRequest("GET", "/index.json", nil))

	if rec.Code != 200 {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := parsed["status"]; !ok {
		t.Error("JSON missing status envelope")
	}
}
