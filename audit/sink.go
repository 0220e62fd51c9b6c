package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// Sink receives dispatched audit records.
type Sink interface {
	Emit(ctx context.Context, rec Record)
}

// NoOpSink drops audit records.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Record) {}

// ChannelSink writes audit records into a buffered channel.
type ChannelSink struct {
	records chan Record
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		records: make(chan Record, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, rec Record) {
	select {
	case s.records <- rec:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Records() <-chan Record {
	return s.records
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, rec Record) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// StoreSink persists each record through a [Store]. Persistence failure is a
// LoggingFault: logged locally, never surfaced.
type StoreSink struct {
	store  Store
	logger *slog.Logger
}

func NewStoreSink(store Store, logger *slog.Logger) *StoreSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) Emit(ctx context.Context, rec Record) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Append(ctx, &rec); err != nil {
		s.logger.Error("audit record persistence failed",
			"action", string(rec.Action),
			"record_id", rec.ID,
			"err", err,
		)
	}
}
