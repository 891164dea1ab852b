// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads grammarc project configuration.
//
// A project is configured by a grammarc.yaml or grammarc.toml file. Both
// formats have the same fields:
//
//	package: calc
//	output: gen
//	inputs: ["grammars/**/*.grammar"]
//	import_paths: [grammars]
//	max_parallelism: 4
//	rt_import: github.com/bufbuild/grammarc/rt
//	warnings_as_errors: true
//	log:
//	  verbosity: 1
//	  file: grammarc.log
//
// Relative paths are resolved against the directory containing the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/grammarc/codegen"
)

// FileNames are the names [Find] looks for, in order of preference.
var FileNames = []string{"grammarc.yaml", "grammarc.yml", "grammarc.toml"}

// DefaultInputs is the input pattern used when a configuration names none.
const DefaultInputs = "**/*.grammar"

// Config is the configuration of a grammarc project.
type Config struct {
	// Package is the Go package name of generated files. If empty, each
	// grammar's lower-cased name is used.
	Package string `yaml:"package" toml:"package"`
	// Output is the directory generated files are written to.
	Output string `yaml:"output" toml:"output"`
	// Inputs are doublestar patterns selecting the grammar files to compile.
	Inputs []string `yaml:"inputs" toml:"inputs"`
	// ImportPaths are the directories searched for parent grammars.
	ImportPaths []string `yaml:"import_paths" toml:"import_paths"`
	// MaxParallelism limits the number of grammars compiled at once.
	MaxParallelism int `yaml:"max_parallelism" toml:"max_parallelism"`
	// RuntimeImport is the import path of the runtime package.
	RuntimeImport string `yaml:"rt_import" toml:"rt_import"`
	// WarningsAsErrors makes any warning fail the compilation.
	WarningsAsErrors bool      `yaml:"warnings_as_errors" toml:"warnings_as_errors"`
	Log              LogConfig `yaml:"log" toml:"log"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-" toml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Verbosity is the commonlog verbosity: 0 logs errors and warnings only,
	// higher values add notices, info and debug messages.
	Verbosity int `yaml:"verbosity" toml:"verbosity"`
	// File is the log file. If empty, logs go to stderr.
	File string `yaml:"file" toml:"file"`
}

// Default returns the configuration used when no file is present, with
// relative paths resolved against dir.
func Default(dir string) *Config {
	cfg := &Config{Dir: dir}
	cfg.applyDefaults()
	return cfg
}

// Find looks for a configuration file in dir and returns its path.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads the configuration file at path. The format is chosen by the
// file extension. Unknown fields are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.resolve(dir)
	return cfg, nil
}

// Parse decodes a configuration in the format named by ext, which is
// ".yaml", ".yml" or ".toml". Paths are left as written.
func Parse(ext string, data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse config: unknown field %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = "."
	}
	if len(c.Inputs) == 0 {
		c.Inputs = []string{DefaultInputs}
	}
	if c.MaxParallelism <= 0 {
		c.MaxParallelism = runtime.GOMAXPROCS(0)
	}
	if c.RuntimeImport == "" {
		c.RuntimeImport = codegen.DefaultRuntime
	}
}

// resolve makes the configured paths absolute, relative to dir.
func (c *Config) resolve(dir string) {
	c.Dir = dir
	c.Output = c.Path(c.Output)
	for i, p := range c.ImportPaths {
		c.ImportPaths[i] = c.Path(p)
	}
	if c.Log.File != "" {
		c.Log.File = c.Path(c.Log.File)
	}
}

// Path resolves p relative to the configuration's directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for _, pattern := range c.Inputs {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid input pattern %q", pattern)
		}
	}
	if c.Package != "" && !isIdentifier(c.Package) {
		return fmt.Errorf("invalid package name %q", c.Package)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("invalid log verbosity %d", c.Log.Verbosity)
	}
	return nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
