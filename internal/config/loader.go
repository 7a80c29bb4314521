package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sandboxtest/sandboxtest/internal/output"
	"github.com/sandboxtest/sandboxtest/internal/runtime"
)

// LoaderOptions carries the CLI-flag overrides Load applies on top of
// file and environment configuration.
type LoaderOptions struct {
	ConfigFlag   string
	RootDirFlag  string
	AutomockFlag *bool
	VerboseFlag  bool
}

// Load resolves a runtime.RawConfig from flag > env > file > default,
// mirroring the teacher's config precedence.
func Load(opts LoaderOptions) (*runtime.RawConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SANDBOXTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultFileConfig()
	v.SetDefault("cacheDirectory", def.CacheDirectory)
	v.SetDefault("automock", def.Automock)
	v.SetDefault("mocksPattern", def.MocksPattern)
	v.SetDefault("testRegex", def.TestRegex)
	v.SetDefault("cache", def.Cache)

	if opts.ConfigFlag != "" {
		v.SetConfigFile(opts.ConfigFlag)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("sandboxtest: reading config file %s: %w", opts.ConfigFlag, err)
		}
		output.Debug("loaded config file", "path", opts.ConfigFlag)
	}

	var file FileConfig
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("sandboxtest: decoding configuration: %w", err)
	}

	if opts.RootDirFlag != "" {
		file.RootDir = opts.RootDirFlag
	}
	if opts.AutomockFlag != nil {
		file.Automock = *opts.AutomockFlag
	}

	return &runtime.RawConfig{
		CacheDirectory:             file.CacheDirectory,
		Automock:                   file.Automock,
		MocksPattern:               file.MocksPattern,
		TestRegex:                  file.TestRegex,
		CoveragePathIgnorePatterns: file.CoveragePathIgnorePatterns,
		UnmockedModulePathPatterns: file.UnmockedModulePathPatterns,
		CollectCoverage:            file.CollectCoverage,
		CollectCoverageOnlyFrom:    file.CollectCoverageOnlyFrom,
		SetupFiles:                 file.SetupFiles,
		RootDir:                    file.RootDir,
		TestEnvData:                file.TestEnvData,
		Cache:                      file.Cache,
	}, nil
}
