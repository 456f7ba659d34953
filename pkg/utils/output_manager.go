package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles where compiled workflow files are written
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}

// GetOutputFilePath returns the path for fileName inside the output
// directory. Directory components of fileName are dropped.
func (om *OutputManager) GetOutputFilePath(fileName string) string {
	return filepath.Join(om.BaseOutputDir, filepath.Base(fileName))
}

// WorkflowFileName is the file name used for a pipeline's workflow.
func WorkflowFileName(pipelineName, format string) string {
	ext := ".yaml"
	if strings.EqualFold(format, "json") {
		ext = ".json"
	}
	return pipelineName + ext
}

// WriteFile writes data to fileName in the output directory, creating the
// directory if needed, and returns the written path.
func (om *OutputManager) WriteFile(fileName string, data []byte) (string, error) {
	if err := om.EnsureOutputDirExists(); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := om.GetOutputFilePath(fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// GetFileType determines the document type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}
