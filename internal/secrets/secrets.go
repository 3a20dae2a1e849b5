// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed contents
// are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// AnthropicAPIKey is the file holding the Messages API key.
const AnthropicAPIKey = "anthropic-api-key"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map. Dotfiles,
// subdirectories and empty files are skipped. Unreadable files are logged
// and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Resolve returns explicit when it is set, otherwise the secret stored
// under key, otherwise "".
func Resolve(secrets map[string]string, key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return secrets[key]
}
