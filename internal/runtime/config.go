package runtime

import "regexp"

// RawConfig is the configuration surface spec.md §6 names, before
// pattern compilation. It is what internal/config decodes from a file,
// environment variables, and CLI flags.
type RawConfig struct {
	CacheDirectory             string
	Automock                   bool
	MocksPattern               string
	TestRegex                  string
	CoveragePathIgnorePatterns []string
	UnmockedModulePathPatterns []string
	CollectCoverage            bool
	CollectCoverageOnlyFrom    []string
	SetupFiles                 []string
	RootDir                    string
	TestEnvData                map[string]any
	Cache                      bool
}

// Config is RawConfig with every pattern compiled, per spec.md §4.8
// step 1: "compile the mocksPattern, testRegex,
// coveragePathIgnorePatterns into matchers".
type Config struct {
	CacheDirectory             string
	Automock                   bool
	MocksPattern               *regexp.Regexp
	TestRegex                  *regexp.Regexp
	CoveragePathIgnorePatterns []*regexp.Regexp
	UnmockedModulePathPatterns []string
	CollectCoverage            bool
	CollectCoverageOnlyFrom    map[string]struct{}
	SetupFiles                 []string
	RootDir                    string
	TestEnvData                map[string]any
	Cache                      bool
}

// Compile compiles raw's patterns into a Config. testRegex has its "/"
// separators replaced with the host path separator first, per spec.md
// §4.8 step 1.
func Compile(raw RawConfig) (*Config, error) {
	cfg := &Config{
		CacheDirectory:             raw.CacheDirectory,
		Automock:                   raw.Automock,
		UnmockedModulePathPatterns: raw.UnmockedModulePathPatterns,
		CollectCoverage:            raw.CollectCoverage,
		SetupFiles:                 raw.SetupFiles,
		RootDir:                    raw.RootDir,
		TestEnvData:                raw.TestEnvData,
		Cache:                      raw.Cache,
	}

	if raw.MocksPattern != "" {
		re, err := regexp.Compile(raw.MocksPattern)
		if err != nil {
			return nil, err
		}
		cfg.MocksPattern = re
	}

	if raw.TestRegex != "" {
		re, err := regexp.Compile(hostPathSeparate(raw.TestRegex))
		if err != nil {
			return nil, err
		}
		cfg.TestRegex = re
	}

	for _, pattern := range raw.CoveragePathIgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		cfg.CoveragePathIgnorePatterns = append(cfg.CoveragePathIgnorePatterns, re)
	}

	if len(raw.CollectCoverageOnlyFrom) > 0 {
		cfg.CollectCoverageOnlyFrom = make(map[string]struct{}, len(raw.CollectCoverageOnlyFrom))
		for _, f := range raw.CollectCoverageOnlyFrom {
			cfg.CollectCoverageOnlyFrom[f] = struct{}{}
		}
	}

	return cfg, nil
}

func hostPathSeparate(pattern string) string {
	// On POSIX hosts the separator is already "/"; this exists so the
	// substitution point named in spec.md §4.8 step 1 is explicit and
	// portable if compiled for a host with a different separator.
	const hostSep = "/"
	if hostSep == "/" {
		return pattern
	}
	out := make([]rune, 0, len(pattern))
	for _, r := range pattern {
		if r == '/' {
			out = append(out, []rune(hostSep)...)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
