package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/events"
	"github.com/jiaofangliang/datahub/internal/model"
	"github.com/jiaofangliang/datahub/internal/store"
)

// DatasetServer serves datasets, their compliance annotations and the
// classification lookup tables over both HTTP and gRPC.
type DatasetServer struct {
	store     store.Store
	publisher events.Publisher
	tables    *compliance.Tables
	sseHub    *sseHub
}

// NewDatasetServer returns a new DatasetServer backed by the given store,
// publisher and lookup tables. A nil tables uses compliance.Default().
func NewDatasetServer(s store.Store, p events.Publisher, tables *compliance.Tables) *DatasetServer {
	if tables == nil {
		tables = compliance.Default()
	}
	return &DatasetServer{
		store:     s,
		publisher: p,
		tables:    tables,
		sseHub:    newSSEHub(),
	}
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *DatasetServer) recordAndPublish(ctx context.Context, topic, datasetID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "dataset_id", datasetID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:     topic,
		DatasetID: datasetID,
		Actor:     actor,
		Payload:   payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "dataset_id", datasetID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "dataset_id", datasetID, "error", err)
	}
	s.sseHub.broadcast(topic, payload)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// conflictError indicates a write that collides with an existing record.
// Transport layers map this to 409 / AlreadyExists.
type conflictError string

func (e conflictError) Error() string { return string(e) }

// notFoundError reports a lookup miss outside the store, such as an
// unregistered identifier type.
type notFoundError string

func (e notFoundError) Error() string  { return string(e) }
func (e notFoundError) NotFound() bool { return true }
