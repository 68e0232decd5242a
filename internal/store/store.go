package store

import (
	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/logging"
	"github.com/sqlpulse/sqlpulse/internal/model"
)

// Store fans each snapshot out to the ring buffer, the daily metrics file,
// and the sqlite history. Persistence failures are logged, never
// propagated: a full disk must not stop monitoring.
type Store struct {
	buffer  *Buffer
	sink    *FileSink
	history *History
	log     *logging.Logger
}

// New assembles a store. sink and history may be nil to disable that layer.
func New(buffer *Buffer, sink *FileSink, history *History, lg *logging.Logger) *Store {
	return &Store{buffer: buffer, sink: sink, history: history, log: lg}
}

// Buffer exposes the in-memory ring for readers.
func (s *Store) Buffer() *Buffer { return s.buffer }

// History exposes the sqlite archive, or nil when disabled.
func (s *Store) History() *History { return s.history }

// Save persists one snapshot to every configured layer.
func (s *Store) Save(snap model.Snapshot) {
	s.buffer.Add(snap)

	if s.sink != nil {
		if err := s.sink.Append(snap); err != nil {
			s.log.Main.Error("failed to append metrics file", zap.Error(err))
		}
	}
	if s.history != nil {
		if err := s.history.Insert(snap); err != nil {
			s.log.Main.Error("failed to archive snapshot", zap.Error(err))
		}
	}
}
