package dirhash

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Configuration holds the exclude rules of one hashed root, read from Hashes.config:
//
//	<configuration>
//	  <exclude>
//	    <directories matching="obj" />
//	    <files matching="*.tmp" />
//	  </exclude>
//	</configuration>
type Configuration struct {
	ExcludedDirectories []*Pattern
	ExcludedFiles       []*Pattern
}

type xmlConfiguration struct {
	Exclude *xmlExclude `xml:"exclude"`
}

type xmlExclude struct {
	Directories []xmlMatching `xml:"directories"`
	Files       []xmlMatching `xml:"files"`
}

type xmlMatching struct {
	Matching *string `xml:"matching,attr"`
}

// EmptyConfiguration excludes nothing
func EmptyConfiguration() *Configuration {
	return &Configuration{}
}

// LoadConfiguration reads rootDir/Hashes.config. A missing file yields an empty configuration.
func LoadConfiguration(rootDir string) (*Configuration, error) {
	configPath := filepath.Join(rootDir, ConfigurationFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			VerboseLog(2, "No %s in %s, excluding nothing", ConfigurationFileName, rootDir)
			return EmptyConfiguration(), nil
		}
		return nil, ioError("read", configPath, err)
	}

	cfg, err := ParseConfiguration(data)
	if err != nil {
		return nil, &ConfigurationError{Path: configPath, Err: err}
	}

	VerboseLog(1, "Loaded %s: %d directory and %d file exclusions",
		configPath, len(cfg.ExcludedDirectories), len(cfg.ExcludedFiles))
	return cfg, nil
}

// ParseConfiguration parses the configuration document
func ParseConfiguration(data []byte) (*Configuration, error) {
	var doc xmlConfiguration
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed configuration: %w", err)
	}

	cfg := EmptyConfiguration()
	if doc.Exclude == nil {
		return cfg, nil
	}

	var err error
	if cfg.ExcludedDirectories, err = compileMatching("directories", doc.Exclude.Directories); err != nil {
		return nil, err
	}
	if cfg.ExcludedFiles, err = compileMatching("files", doc.Exclude.Files); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compileMatching(element string, items []xmlMatching) ([]*Pattern, error) {
	patterns := make([]*Pattern, 0, len(items))
	for i, item := range items {
		if item.Matching == nil {
			return nil, fmt.Errorf("<%s> element %d has no matching attribute", element, i+1)
		}
		pattern, err := NewPattern(*item.Matching)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

// ShouldInclude applies the exclusion rules to a single directory child by name.
// Entries that are neither files nor directories are always included.
func (c *Configuration) ShouldInclude(entry DiskEntry) bool {
	switch entry.Kind {
	case KindDirectory:
		return !matchesAny(c.ExcludedDirectories, entry.Name)
	case KindFile:
		return !matchesAny(c.ExcludedFiles, entry.Name)
	default:
		return true
	}
}

func matchesAny(patterns []*Pattern, name string) bool {
	for _, p := range patterns {
		if p.Matches(name) {
			return true
		}
	}
	return false
}
