package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName returns the deterministic feed file name for a site.
func FileName(siteName string) string {
	name := strings.ToLower(strings.ReplaceAll(siteName, " ", "_"))
	return name + "_promocoes.xml"
}

// Write publishes a document under dir, replacing any previous file
// for the site in one step. The rename keeps readers from ever seeing
// a partially written feed.
func Write(dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create feeds directory: %w", err)
	}

	target := filepath.Join(dir, FileName(doc.Site))

	tmp, err := os.CreateTemp(dir, ".feed-*.xml")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.WriteString(RenderRSS(doc)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close feed file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to replace feed file: %w", err)
	}

	return target, nil
}
