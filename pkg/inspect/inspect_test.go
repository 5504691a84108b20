package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kinetic-dev/kinetic/pkg/kinetic"
)

func newTestServer(t *testing.T) (*httptest.Server, *kinetic.Runtime, *kinetic.Instance) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := kinetic.New(kinetic.WithLogger(logger))
	t.Cleanup(func() { _ = rt.Close() })

	c := kinetic.MustClass("Unit", nil, kinetic.ClassDef{
		Props: []kinetic.Property{
			{Name: "hp", Default: 100.0},
			{Name: "kind", Default: "soldier", Readonly: true},
		},
	})
	in, err := rt.NewInstance(c)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	srv := httptest.NewServer(NewServer(rt, WithLogger(logger)).Handler())
	t.Cleanup(srv.Close)
	return srv, rt, in
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestListInstances(t *testing.T) {
	srv, _, in := newTestServer(t)

	var got []instanceSummary
	if status := getJSON(t, srv.URL+"/instances", &got); status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(got))
	}
	if got[0].ID != in.ID() || got[0].Class != "Unit" {
		t.Errorf("unexpected summary: %+v", got[0])
	}
}

func TestGetInstance(t *testing.T) {
	srv, _, in := newTestServer(t)

	var got instanceDetail
	url := fmt.Sprintf("%s/instances/%d", srv.URL, in.ID())
	if status := getJSON(t, url, &got); status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if got.State["hp"] != 100.0 {
		t.Errorf("expected hp in state, got %v", got.State)
	}
}

func TestGetInstanceErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if status := getJSON(t, srv.URL+"/instances/notanumber", nil); status != http.StatusBadRequest {
		t.Errorf("malformed id: status %d", status)
	}
	if status := getJSON(t, srv.URL+"/instances/424242", nil); status != http.StatusNotFound {
		t.Errorf("unknown id: status %d", status)
	}
}

func putProp(t *testing.T, srv *httptest.Server, id uint64, name string, value any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"value": value})
	url := fmt.Sprintf("%s/instances/%d/props/%s", srv.URL, id, name)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", url, err)
	}
	return resp
}

func TestSetProp(t *testing.T) {
	srv, _, in := newTestServer(t)

	resp := putProp(t, srv, in.ID(), "hp", 55.0)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if in.MustGet("hp") != 55.0 {
		t.Errorf("write did not reach instance, hp=%v", in.MustGet("hp"))
	}
}

func TestSetReadonlyProp(t *testing.T) {
	srv, _, in := newTestServer(t)

	resp := putProp(t, srv, in.ID(), "kind", "mage")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("readonly write: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if in.MustGet("kind") != "soldier" {
		t.Errorf("readonly value changed")
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv, _, in := newTestServer(t)

	in.Set("hp", 10.0)
	commitURL := fmt.Sprintf("%s/instances/%d/commit", srv.URL, in.ID())
	resp, err := http.Post(commitURL, "application/json", nil)
	if err != nil {
		t.Fatalf("POST commit: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit status %d", resp.StatusCode)
	}

	in.Set("hp", 20.0)
	undoURL := fmt.Sprintf("%s/instances/%d/undo", srv.URL, in.ID())
	resp, err = http.Post(undoURL, "application/json", nil)
	if err != nil {
		t.Fatalf("POST undo: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Applied bool           `json:"applied"`
		State   map[string]any `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Applied {
		t.Fatal("undo not applied")
	}
	if in.MustGet("hp") != 10.0 {
		t.Errorf("undo did not restore, hp=%v", in.MustGet("hp"))
	}
}

func TestWatchStream(t *testing.T) {
	srv, _, in := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/instances/%d/watch", in.ID())
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Give the stream a moment to subscribe before mutating.
	time.Sleep(50 * time.Millisecond)
	if err := in.Set("hp", 1.0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame changeFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame.Type != "changed" || frame.Prop != "hp" {
		t.Errorf("unexpected frame: %+v", frame)
	}
	if frame.NewValue != 1.0 {
		t.Errorf("expected newValue 1, got %v", frame.NewValue)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status %d", resp.StatusCode)
	}
}
