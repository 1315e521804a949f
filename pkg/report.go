package dirhash

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SkipReason explains why a file took no part in a purge
type SkipReason string

const (
	SkipUntrustedSource SkipReason = "source file has no trusted hash"
	SkipUntrustedTarget SkipReason = "target file has no trusted hash"
)

// PurgeReport summarizes one purge run
type PurgeReport struct {
	RunID              string        `yaml:"run_id"`
	Target             string        `yaml:"target"`
	Sources            []string      `yaml:"sources"`
	DryRun             bool          `yaml:"dry_run"`
	Deleted            []DeletedFile `yaml:"deleted,omitempty"`
	RemovedDirectories []string      `yaml:"removed_directories,omitempty"`
	Skipped            []SkippedFile `yaml:"skipped,omitempty"`
	KeptFiles          int           `yaml:"kept_files"`
}

// DeletedFile is one target file deleted (or, in a dry run, marked) as a duplicate
type DeletedFile struct {
	Path        string `yaml:"path"`
	DuplicateOf string `yaml:"duplicate_of"`
	SHA1        string `yaml:"sha1"`
	SHA256      string `yaml:"sha256"`
}

// SkippedFile is a file that could not be judged because it lacked a trusted hash
type SkippedFile struct {
	Path   string     `yaml:"path"`
	Reason SkipReason `yaml:"reason"`
}

func newPurgeReport(target *Store, sources []*Store, dryRun bool) *PurgeReport {
	report := &PurgeReport{
		RunID:  uuid.New().String(),
		Target: target.Root,
		DryRun: dryRun,
	}
	for _, s := range sources {
		report.Sources = append(report.Sources, s.Root)
	}
	return report
}

func (r *PurgeReport) addDeleted(path, duplicateOf string, hf HashedFile) {
	r.Deleted = append(r.Deleted, DeletedFile{
		Path:        path,
		DuplicateOf: duplicateOf,
		SHA1:        hf.SHA1Hex(),
		SHA256:      hf.SHA256Hex(),
	})
}

func (r *PurgeReport) addSkipped(path string, reason SkipReason) {
	r.Skipped = append(r.Skipped, SkippedFile{Path: path, Reason: reason})
}

// WriteYAML encodes the report
func (r *PurgeReport) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode purge report: %w", err)
	}
	return encoder.Close()
}

// SaveYAML writes the report to reportPath
func (r *PurgeReport) SaveYAML(reportPath string) error {
	file, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := r.WriteYAML(file); err != nil {
		return err
	}
	return file.Close()
}

// LoadPurgeReport reads a report written by SaveYAML
func LoadPurgeReport(reportPath string) (*PurgeReport, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report PurgeReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report file: %w", err)
	}
	return &report, nil
}
