package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"go.uber.org/zap"
)

// SubmitFailedMessage is shown to the respondent when a submission fails.
const SubmitFailedMessage = "Could not send your answers. Please try again in a moment."

// logCollector stands in for the collection endpoint when none is
// configured: the payload is logged and the submission counts as sent.
type logCollector struct {
	log *zap.Logger
}

func (c logCollector) Collect(_ context.Context, sub survey.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	c.log.Info("collection endpoint not configured, submission logged only",
		zap.String("submission_id", sub.SubmissionID),
		zap.Int("group", sub.GroupID),
		zap.ByteString("payload", data))
	return nil
}

// Gateway delivers completed sessions. Delivery is a single attempt; a
// failure is reported to the respondent and the payload is appended to the
// local outbox so nothing is lost.
type Gateway struct {
	collector ports.Collector
	notifier  ports.Notifier
	outbox    string // empty = no outbox
	log       *zap.Logger

	mu sync.Mutex // serializes outbox appends
}

// NewGateway creates a gateway. A nil collector selects the log-only mock;
// a nil notifier drops notifications.
func NewGateway(collector ports.Collector, notifier ports.Notifier, outbox string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if collector == nil {
		collector = logCollector{log: log}
	}
	return &Gateway{
		collector: collector,
		notifier:  notifier,
		outbox:    outbox,
		log:       log,
	}
}

// Submit sends sub and reports whether it was accepted. It never returns
// an error; failures are logged, notified and written to the outbox.
func (g *Gateway) Submit(ctx context.Context, sub survey.Submission) bool {
	err := g.collector.Collect(ctx, sub)
	if err == nil {
		g.log.Info("submission accepted",
			zap.String("submission_id", sub.SubmissionID),
			zap.Int("group", sub.GroupID))
		return true
	}

	g.log.Error("submission failed",
		zap.String("submission_id", sub.SubmissionID),
		zap.Int("group", sub.GroupID),
		zap.Error(err))
	if g.notifier != nil {
		g.notifier.Notify(SubmitFailedMessage)
	}
	if err := g.appendOutbox(sub); err != nil {
		g.log.Error("outbox write failed", zap.String("path", g.outbox), zap.Error(err))
	}
	return false
}

// appendOutbox writes sub as one JSON line.
func (g *Gateway) appendOutbox(sub survey.Submission) error {
	if g.outbox == "" {
		return nil
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	data = append(data, '\n')

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(g.outbox), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(g.outbox, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadOutbox returns the submissions recorded in an outbox file, oldest
// first. A missing file yields none.
func ReadOutbox(path string) ([]survey.Submission, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []survey.Submission
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var sub survey.Submission
		if err := dec.Decode(&sub); err != nil {
			return out, fmt.Errorf("outbox line %d: %w", len(out)+1, err)
		}
		out = append(out, sub)
	}
	return out, nil
}
