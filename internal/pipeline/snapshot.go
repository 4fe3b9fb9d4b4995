package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"newsdesk/internal/core"
)

// WriteSnapshot writes the articles' metadata as a pretty-printed JSON array.
// The file is replaced atomically so readers never see a partial snapshot.
func WriteSnapshot(path string, articles []core.Article) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	records := make([]map[string]string, 0, len(articles))
	for _, a := range articles {
		records = append(records, a.Metadata())
	}

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) ([]core.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	articles := make([]core.Article, 0, len(records))
	for _, r := range records {
		articles = append(articles, core.ArticleFromMetadata(r))
	}
	return articles, nil
}
