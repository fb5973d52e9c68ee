package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"retentionos/internal/blob"
)

// Writer serializes run artifacts and stores them.
type Writer struct {
	store blob.Store
	log   *zap.Logger
}

// NewWriter builds a Writer. A nil logger disables logging.
func NewWriter(store blob.Store, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{store: store, log: log}
}

// Write stores the canonical document and validation report under keys
// derived from the business name. It returns the two keys.
func (w *Writer) Write(ctx context.Context, doc Document, rep Report) (string, string, error) {
	slug := Slug(doc.BusinessName)
	if slug == "" {
		return "", "", fmt.Errorf("business name %q yields an empty artifact key", doc.BusinessName)
	}
	docKey := slug + "/canonical.json"
	repKey := slug + "/validation_report.json"

	if err := w.put(ctx, docKey, doc); err != nil {
		return "", "", fmt.Errorf("store canonical document: %w", err)
	}
	if err := w.put(ctx, repKey, rep); err != nil {
		return "", "", fmt.Errorf("store validation report: %w", err)
	}
	w.log.Info("artifacts stored",
		zap.String("driver", string(w.store.Driver())),
		zap.String("document", docKey),
		zap.String("report", repKey))
	return docKey, repKey, nil
}

func (w *Writer) put(ctx context.Context, key string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	_, err = w.store.Put(ctx, key, bytes.NewReader(data), "application/json")
	return err
}

// Encode renders an artifact as stable indented JSON with a trailing
// newline. Map keys serialize sorted, so encoding is deterministic.
func Encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
