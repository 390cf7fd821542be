package audit

import (
	"bytes"
	"encoding/csv"
	"time"
)

var csvHeader = []string{"id", "at", "component", "outcome", "method", "path", "principal_id", "role", "permission"}

// WriteCSV encodes events for download.
func WriteCSV(events []AccessEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, ev := range events {
		record := []string{
			ev.ID.String(),
			ev.At.UTC().Format(time.RFC3339),
			ev.Component,
			ev.Outcome,
			ev.Method,
			ev.Path,
			ev.PrincipalID,
			string(ev.Role),
			ev.Permission,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
