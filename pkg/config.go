package dirhash

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// SettingsEnvVar names the environment variable that points at the settings file
const SettingsEnvVar = "DIRHASH_SETTINGS"

// Settings holds the tool settings. They live outside any hashed tree so that
// reading them never adds files to a store.
type Settings struct {
	settingsPath string
	ini          *ini.File
}

// VerboseConfig represents verbosity settings
type VerboseConfig struct {
	Level int    // 0=quiet, 1=basic, 2=detailed, 3=trace
	Debug string // comma-separated debug categories
}

// PerformanceConfig represents hashing performance settings
type PerformanceConfig struct {
	HashBuffer string // read buffer used while hashing (default: "64K")
}

// OutputConfig represents console output settings
type OutputConfig struct {
	Color string // auto, always, never
}

// PurgeConfig represents purge defaults
type PurgeConfig struct {
	DryRun bool `ini:"dry_run"`
}

// AllSettings represents all settings
type AllSettings struct {
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
	Output      *OutputConfig
	Purge       *PurgeConfig
}

// DefaultSettingsPath resolves the settings file: $DIRHASH_SETTINGS, else ~/.dirhash/config
func DefaultSettingsPath() string {
	if p := os.Getenv(SettingsEnvVar); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dirhash", "config")
}

// LoadSettings loads settings from settingsPath, or from DefaultSettingsPath when empty.
// A missing file yields defaults and is not created.
func LoadSettings(settingsPath string) (*Settings, error) {
	if settingsPath == "" {
		settingsPath = DefaultSettingsPath()
	}

	s := &Settings{settingsPath: settingsPath}

	if settingsPath == "" {
		s.ini = ini.Empty()
		return s, nil
	}

	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		VerboseLog(2, "No settings file at %s, using defaults", settingsPath)
		s.ini = ini.Empty()
		return s, nil
	}

	iniFile, err := ini.Load(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file: %w", err)
	}
	s.ini = iniFile
	return s, nil
}

// Path returns the file the settings were resolved from
func (s *Settings) Path() string {
	return s.settingsPath
}

// GetVerboseConfig returns the verbose settings
func (s *Settings) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if s.ini.HasSection("verbose") {
		section := s.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance settings
func (s *Settings) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashBuffer: "64K",
	}

	if s.ini.HasSection("performance") {
		section := s.ini.Section("performance")
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
	}

	return performanceConfig
}

// GetOutputConfig returns the output settings
func (s *Settings) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Color: "auto",
	}

	if s.ini.HasSection("output") {
		section := s.ini.Section("output")
		if section.HasKey("color") {
			outputConfig.Color = section.Key("color").String()
		}
	}

	return outputConfig
}

// GetPurgeConfig returns the purge defaults
func (s *Settings) GetPurgeConfig() *PurgeConfig {
	purgeConfig := &PurgeConfig{}

	if s.ini.HasSection("purge") {
		if err := s.ini.Section("purge").MapTo(purgeConfig); err != nil {
			VerboseLog(1, "Ignoring malformed [purge] section: %v", err)
			return &PurgeConfig{}
		}
	}

	return purgeConfig
}

// GetAllSettings returns every settings section
func (s *Settings) GetAllSettings() *AllSettings {
	return &AllSettings{
		Verbose:     s.GetVerboseConfig(),
		Performance: s.GetPerformanceConfig(),
		Output:      s.GetOutputConfig(),
		Purge:       s.GetPurgeConfig(),
	}
}

// HashBufferSize returns the configured hash buffer in bytes
func (s *Settings) HashBufferSize() (int, error) {
	size, err := ParseHumanSize(s.GetPerformanceConfig().HashBuffer)
	if err != nil {
		return 0, fmt.Errorf("invalid hash_buffer: %w", err)
	}
	if err := ValidateHashBuffer(size); err != nil {
		return 0, err
	}
	return size, nil
}

// Save writes the settings back to their file
func (s *Settings) Save() error {
	if s.settingsPath == "" {
		return fmt.Errorf("no settings path")
	}
	if err := os.MkdirAll(filepath.Dir(s.settingsPath), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return s.ini.SaveTo(s.settingsPath)
}

// ApplyOverrides applies command-line overrides to the settings.
// Accepts strings like "level:2", "debug:refresh", "hash_buffer:1M", "color:never", "dry_run:true"
func (s *Settings) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "level":
			s.ini.Section("verbose").Key("level").SetValue(value)
		case "debug":
			s.ini.Section("verbose").Key("debug").SetValue(value)
		case "hash_buffer":
			s.ini.Section("performance").Key("hash_buffer").SetValue(value)
		case "color":
			s.ini.Section("output").Key("color").SetValue(value)
		case "dry_run":
			s.ini.Section("purge").Key("dry_run").SetValue(value)
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: level, debug, hash_buffer, color, dry_run)", key)
		}
	}

	return nil
}

// Validate checks every section
func (s *Settings) Validate() error {
	all := s.GetAllSettings()
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if err := ValidateDebugFlags(all.Verbose.Debug); err != nil {
		return err
	}
	if err := ValidateColorMode(all.Output.Color); err != nil {
		return err
	}
	if _, err := s.HashBufferSize(); err != nil {
		return err
	}
	return nil
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateDebugFlags rejects unknown debug categories
func ValidateDebugFlags(debug string) error {
	for _, flag := range strings.Split(debug, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(flag), ":")
		switch strings.ToLower(name) {
		case "", DebugRefresh, DebugEnumerate, DebugPurge, DebugStore:
		default:
			return fmt.Errorf("unknown debug flag: %s (supported: %s, %s, %s, %s)",
				flag, DebugRefresh, DebugEnumerate, DebugPurge, DebugStore)
		}
	}
	return nil
}

// ValidateColorMode validates the output color mode
func ValidateColorMode(mode string) error {
	switch strings.ToLower(mode) {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("unsupported color mode: %s (supported: auto, always, never)", mode)
	}
}

// ValidateHashBuffer keeps the hash buffer within sane bounds
func ValidateHashBuffer(size int) error {
	if size < 4*1024 {
		return fmt.Errorf("hash buffer must be at least 4K, got: %d", size)
	}
	if size > 64*1024*1024 {
		return fmt.Errorf("hash buffer should not exceed 64M, got: %d", size)
	}
	return nil
}

// ParseHumanSize parses human-readable size strings (e.g., "64K", "1M", "1G")
func ParseHumanSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	numPart := sizeStr
	suffix := ""
	for i, char := range sizeStr {
		if !(char >= '0' && char <= '9' || char == '.') {
			numPart, suffix = sizeStr[:i], sizeStr[i:]
			break
		}
	}

	if numPart == "" {
		return 0, fmt.Errorf("no numeric part in size string: %s", sizeStr)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part in size string %s: %w", sizeStr, err)
	}

	var multiplier float64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size suffix in %s", sizeStr)
	}

	return int(num * multiplier), nil
}
