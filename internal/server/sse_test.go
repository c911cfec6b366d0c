package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jiaofangliang/datahub/internal/events"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe(nil)
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicDatasetCreated, []byte(`{"id":"ds-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicDatasetCreated || string(evt.Data) != `{"id":"ds-1"}` || evt.ID != 1 {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe([]string{"datahub.compliance.*"})
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicDatasetCreated, []byte(`{}`))
	hub.broadcast(events.TopicComplianceUpdated, []byte(`{}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicComplianceUpdated {
			t.Fatalf("expected %q, got %q", events.TopicComplianceUpdated, evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event %q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe(nil)
	hub.unsubscribe(client)

	hub.broadcast(events.TopicDatasetCreated, []byte(`{}`))
	select {
	case evt := <-client.ch:
		t.Fatalf("unsubscribed client received %q", evt.Topic)
	default:
	}
}

func TestSSEHub_Since(t *testing.T) {
	hub := newSSEHub()
	if got := hub.since(0); len(got) != 0 {
		t.Fatalf("expected nothing from empty hub, got %d", len(got))
	}

	for range 3 {
		hub.broadcast(events.TopicSchemaUpdated, []byte(`{}`))
	}
	got := hub.since(1)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("expected events 2 and 3, got %+v", got)
	}
	if got := hub.since(3); len(got) != 0 {
		t.Fatalf("expected nothing after the last ID, got %d", len(got))
	}
}

func TestSSEClient_ResumeSkipsBufferedDuplicates(t *testing.T) {
	hub := newSSEHub()
	hub.broadcast(events.TopicDatasetCreated, []byte(`{"n":1}`))

	// Subscribed before the replay, so event 2 lands both in the ring and in
	// the client's channel.
	client := hub.subscribe(nil)
	defer hub.unsubscribe(client)
	hub.broadcast(events.TopicDatasetCreated, []byte(`{"n":2}`))

	replayed := client.resume(hub, 0)
	if len(replayed) != 2 || replayed[0].ID != 1 || replayed[1].ID != 2 {
		t.Fatalf("expected replay of events 1 and 2, got %+v", replayed)
	}

	select {
	case evt := <-client.ch:
		if evt.ID != 2 {
			t.Fatalf("expected buffered event 2, got %d", evt.ID)
		}
		if client.fresh(evt) {
			t.Fatal("event 2 was replayed and must not be sent again")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for buffered event")
	}

	hub.broadcast(events.TopicDatasetCreated, []byte(`{"n":3}`))
	select {
	case evt := <-client.ch:
		if !client.fresh(evt) {
			t.Fatalf("event %d after the replay must be sent", evt.ID)
		}
		if client.fresh(evt) {
			t.Fatal("an event is fresh only once")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}
}

func TestSSEClient_ResumeHonorsLastIDAndTopics(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe([]string{"datahub.compliance.*"})
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicComplianceUpdated, []byte(`{}`)) // 1
	hub.broadcast(events.TopicDatasetCreated, []byte(`{}`))    // 2
	hub.broadcast(events.TopicComplianceUpdated, []byte(`{}`)) // 3
	hub.broadcast(events.TopicDatasetCreated, []byte(`{}`))    // 4

	replayed := client.resume(hub, 1)
	if len(replayed) != 1 || replayed[0].ID != 3 {
		t.Fatalf("expected only compliance event 3, got %+v", replayed)
	}
	// Channel holds 1 and 3; both are at or below the watermark.
	for range 2 {
		select {
		case evt := <-client.ch:
			if client.fresh(evt) {
				t.Fatalf("event %d already covered by the replay", evt.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out draining buffered events")
		}
	}
}

func TestSSEHub_ReplayWrap(t *testing.T) {
	hub := newSSEHub()
	total := sseReplaySize + 10
	for range total {
		hub.broadcast(events.TopicDatasetCreated, []byte(`{}`))
	}

	got := hub.since(0)
	if len(got) != sseReplaySize {
		t.Fatalf("expected %d remembered events, got %d", sseReplaySize, len(got))
	}
	if got[0].ID != 11 || got[len(got)-1].ID != uint64(total) {
		t.Fatalf("expected IDs 11..%d, got %d..%d", total, got[0].ID, got[len(got)-1].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID != got[i-1].ID+1 {
			t.Fatalf("events out of order at %d: %d after %d", i, got[i].ID, got[i-1].ID)
		}
	}
}

func TestMatchSubject(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{"datahub.dataset.created", "datahub.dataset.created", true},
		{"datahub.dataset.*", "datahub.dataset.deleted", true},
		{"datahub.dataset.*", "datahub.schema.updated", false},
		{"datahub.>", "datahub.compliance.updated", true},
		{"datahub.>", "datahub", false},
		{"datahub.*", "datahub.dataset.created", false},
		{"*.schema.updated", "datahub.schema.updated", true},
		{"datahub.dataset.created.x", "datahub.dataset.created", false},
	} {
		if got := matchSubject(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("matchSubject(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

// streamFor serves one event stream request until stop is called and returns
// the response body.
func streamFor(t *testing.T, path, lastEventID string) (*DatasetServer, func() string) {
	t.Helper()
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", path, nil).WithContext(ctx)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()
	time.Sleep(50 * time.Millisecond)

	return srv, func() string {
		time.Sleep(50 * time.Millisecond)
		cancel()
		<-done
		if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
			t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
		}
		return rec.Body.String()
	}
}

func TestHandleEventStream(t *testing.T) {
	srv, stop := streamFor(t, "/v1/events/stream", "")
	srv.sseHub.broadcast(events.TopicDatasetCreated, []byte(`{"id":"ds-sse1"}`))
	body := stop()

	for _, want := range []string{"id:1\n", "event:" + events.TopicDatasetCreated + "\n", `data:{"id":"ds-sse1"}`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got:\n%s", want, body)
		}
	}
}

func TestHandleEventStream_TopicFilter(t *testing.T) {
	srv, stop := streamFor(t, "/v1/events/stream?topics=datahub.schema.*,%20datahub.compliance.updated", "")
	srv.sseHub.broadcast(events.TopicDatasetCreated, []byte(`{}`))
	srv.sseHub.broadcast(events.TopicSchemaUpdated, []byte(`{}`))
	srv.sseHub.broadcast(events.TopicComplianceUpdated, []byte(`{}`))
	body := stop()

	if strings.Contains(body, events.TopicDatasetCreated) {
		t.Fatalf("expected dataset event to be filtered out, got:\n%s", body)
	}
	if !strings.Contains(body, events.TopicSchemaUpdated) || !strings.Contains(body, events.TopicComplianceUpdated) {
		t.Fatalf("expected schema and compliance events, got:\n%s", body)
	}
}

func TestHandleEventStream_LastEventID(t *testing.T) {
	srv, _, handler := newTestServer()
	srv.sseHub.broadcast(events.TopicDatasetCreated, []byte(`{"n":1}`))
	srv.sseHub.broadcast(events.TopicSchemaUpdated, []byte(`{"n":2}`))
	srv.sseHub.broadcast(events.TopicComplianceUpdated, []byte(`{"n":3}`))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/v1/events/stream", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("expected event 1 to be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) || !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected events 2 and 3, got:\n%s", body)
	}
}

func TestHandleEventStream_FromCompliancePut(t *testing.T) {
	srv, stop := streamFor(t, "/v1/events/stream?topics=datahub.compliance.>", "")
	h := srv.NewHTTPHandler("")

	ds := createTestDataset(t, h, "tracking.page_view")
	rec := doJSON(t, h, "PUT", "/v1/datasets/"+ds.ID+"/compliance", map[string]any{
		"annotations": []map[string]any{{"fieldPath": "email", "identifierType": "none", "logicalType": "EMAIL"}},
	})
	requireStatus(t, rec, 200)
	body := stop()

	if !strings.Contains(body, "event:"+events.TopicComplianceUpdated) {
		t.Fatalf("expected compliance event on stream, got:\n%s", body)
	}
	if !strings.Contains(body, `"dataset_classification":"confidential"`) {
		t.Fatalf("expected classification in payload, got:\n%s", body)
	}
	if strings.Contains(body, events.TopicDatasetCreated) {
		t.Fatalf("expected dataset event to be filtered out, got:\n%s", body)
	}
}
