package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML defaults file. Only keys present in the file override the
// built-in defaults; command line flags override both.
type File struct {
	Clobber    *bool    `yaml:"clobber"`
	Shallow    *bool    `yaml:"shallow"`
	Quality    *int     `yaml:"quality"`
	Dimensions []int    `yaml:"dimensions"`
	ResizeDir  *string  `yaml:"resize_dir"`
	IgnoreFile *string  `yaml:"ignore_file"`
	Extensions []string `yaml:"extensions"`
	Quiet      *bool    `yaml:"quiet"`
	Verbose    *bool    `yaml:"verbose"`
	Codec      *string  `yaml:"codec"`
}

// LoadFile reads and decodes a YAML defaults file. ${VAR} and
// ${VAR:-default} references are expanded from the environment first.
func LoadFile(path string) (File, error) {
	var f File
	if strings.TrimSpace(path) == "" {
		return f, fmt.Errorf("config file path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	expanded, err := expandEnv(string(b))
	if err != nil {
		return f, err
	}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return f, nil
}

// Apply copies every key set in the file onto cfg.
func (f File) Apply(cfg *Config) {
	if f.Clobber != nil {
		cfg.Clobber = *f.Clobber
	}
	if f.Shallow != nil {
		cfg.Recurse = !*f.Shallow
	}
	if f.Quality != nil {
		cfg.Quality = *f.Quality
	}
	if f.Dimensions != nil {
		cfg.Widths = append([]int(nil), f.Dimensions...)
	}
	if f.ResizeDir != nil {
		cfg.ResizeDir = *f.ResizeDir
	}
	if f.IgnoreFile != nil {
		cfg.IgnoreFile = *f.IgnoreFile
	}
	if f.Extensions != nil {
		cfg.Extensions = append([]string(nil), f.Extensions...)
	}
	if f.Quiet != nil {
		cfg.Quiet = *f.Quiet
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	if f.Codec != nil {
		cfg.Codec = CodecName(*f.Codec)
	}
}

// envRef matches ${NAME} and ${NAME:-fallback}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func expandEnv(src string) (string, error) {
	var missing []string
	expanded := envRef.ReplaceAllStringFunc(src, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok {
			return v
		}
		if m[2] != "" {
			return m[3]
		}
		missing = append(missing, m[1])
		return ref
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("config references unset environment variable %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}
