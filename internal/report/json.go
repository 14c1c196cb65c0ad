package report

import (
	"encoding/json"

	"github.com/ogulcanaydogan/qdash/internal/store"
)

func WriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFile(path, append(raw, '\n'), 0o644)
}
