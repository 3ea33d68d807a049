// File: internal/services/backend/export.go
package backend

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/iyunix/go-medtutor/internal/domain"
)

type jsonExport struct {
	ChatID     string           `json:"chatId"`
	ExportedAt time.Time        `json:"exportedAt"`
	Disclaimer string           `json:"disclaimer"`
	Messages   []domain.Message `json:"messages"`
}

func buildJSONExport(chatID string, messages []domain.Message) ([]byte, error) {
	blob, err := json.MarshalIndent(jsonExport{
		ChatID:     chatID,
		ExportedAt: time.Now().UTC(),
		Disclaimer: Disclaimer,
		Messages:   messages,
	}, "", "  ")
	if err != nil {
		return nil, NewStorageError("export_json", "could not encode export", err)
	}
	return blob, nil
}

// buildCSVExport writes a disclaimer row, the header, then one quoted row per
// message. encoding/csv doubles embedded double-quotes per RFC 4180.
func buildCSVExport(messages []domain.Message) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{Disclaimer},
		{"Timestamp", "Role", "Message"},
	}
	for _, m := range messages {
		rows = append(rows, []string{
			m.Timestamp.UTC().Format(time.RFC3339),
			m.Role,
			m.Content,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, NewStorageError("export_csv", "could not encode export", err)
	}
	return buf.Bytes(), nil
}
