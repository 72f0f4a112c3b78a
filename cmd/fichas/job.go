package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/itemforge/fichas/internal/config"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/validation"
)

// loadJob reads, schema-checks and parses a job file. It returns the job
// directory used to resolve relative paths.
func loadJob(path string) (*models.JobSpec, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", models.NewConfigError("reading job file", err)
	}
	if err := validation.CheckJobBytes(data); err != nil {
		return nil, "", err
	}
	spec, err := models.ParseJobSpec(data)
	if err != nil {
		return nil, "", err
	}

	jobDir := filepath.Dir(path)
	if abs, err := filepath.Abs(jobDir); err == nil {
		jobDir = abs
	}
	return spec, jobDir, nil
}

// loadEnv reads .env from the job directory and the working directory.
func loadEnv(jobDir string) config.Env {
	return config.LoadEnv(jobDir, ".")
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
