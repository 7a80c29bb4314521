// Package config loads the sandboxtest configuration surface spec.md §6
// names (cacheDirectory, automock, mocksPattern, testRegex,
// coveragePathIgnorePatterns, unmockedModulePathPatterns,
// collectCoverage, collectCoverageOnlyFrom, setupFiles, rootDir,
// testEnvData, cache), layered flag > env > file > default, the same
// precedence the teacher's internal/config package uses.
package config

// FileConfig is the on-disk shape of a sandboxtest config file (YAML or
// JSON via viper), one field per spec.md §6 configuration option.
// RootDir and Automock can also be set by CLI flags, which win over the
// file.
type FileConfig struct {
	CacheDirectory             string            `mapstructure:"cacheDirectory" yaml:"cacheDirectory"`
	Automock                   bool              `mapstructure:"automock" yaml:"automock"`
	MocksPattern               string            `mapstructure:"mocksPattern" yaml:"mocksPattern"`
	TestRegex                  string            `mapstructure:"testRegex" yaml:"testRegex"`
	CoveragePathIgnorePatterns []string          `mapstructure:"coveragePathIgnorePatterns" yaml:"coveragePathIgnorePatterns"`
	UnmockedModulePathPatterns []string          `mapstructure:"unmockedModulePathPatterns" yaml:"unmockedModulePathPatterns"`
	CollectCoverage            bool              `mapstructure:"collectCoverage" yaml:"collectCoverage"`
	CollectCoverageOnlyFrom    []string          `mapstructure:"collectCoverageOnlyFrom" yaml:"collectCoverageOnlyFrom"`
	SetupFiles                 []string          `mapstructure:"setupFiles" yaml:"setupFiles"`
	RootDir                    string            `mapstructure:"rootDir" yaml:"rootDir"`
	TestEnvData                map[string]any    `mapstructure:"testEnvData" yaml:"testEnvData"`
	Cache                      bool              `mapstructure:"cache" yaml:"cache"`
}

// DefaultFileConfig returns a FileConfig with sandboxtest's defaults
// populated, the equivalent of the teacher's DefaultConfig().
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Automock:     false,
		MocksPattern: `__mocks__`,
		TestRegex:    `(_test|\.test)\.` + "native" + `$`,
		Cache:        true,
	}
}

// ResolvedValue tracks one configuration value and where it came from,
// the same resolution-tracing shape the teacher's config package uses
// for --verbose diagnostics.
type ResolvedValue struct {
	Key      string
	Value    any
	Source   string // "flag", "env", "file", "default"
	Shadowed map[string]any
}
