package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the user data as a JSON document on disk.
type FileStore struct {
	Path string
}

func (s *FileStore) Load(ctx context.Context) (*UserData, error) {
	contents, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var data UserData
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Path, err)
	}

	return &data, nil
}

func (s *FileStore) Save(ctx context.Context, data *UserData) error {
	contents, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(s.Path), ".userdata-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(contents); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpFile.Name(), s.Path)
}
