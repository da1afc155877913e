package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeoutSeconds = 120
	DefaultStorageDir     = "/storage"
	DefaultGeneratedDir   = "/generated"
	DefaultListenAddr     = ":8000"
	DefaultPDFLaTeX       = "pdflatex"
	DefaultPandoc         = "pandoc"
	DefaultLeftDelim      = `\VAR{`
	DefaultRightDelim     = "}"
)

// Config is the worker configuration. Values are layered: defaults, then an
// optional YAML file, then environment variables, then command line flags.
type Config struct {
	TimeoutSeconds int    `yaml:"generationTimeout"`
	StorageDir     string `yaml:"storageDir"`
	GeneratedDir   string `yaml:"generatedDir"`
	ListenAddr     string `yaml:"listenAddr"`
	PDFLaTeX       string `yaml:"pdflatex"`
	Pandoc         string `yaml:"pandoc"`
	ContextFile    string `yaml:"contextFile"`
	LeftDelim      string `yaml:"leftDelim"`
	RightDelim     string `yaml:"rightDelim"`
	LogType        string `yaml:"logType"`
	LogLevel       string `yaml:"logLevel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TimeoutSeconds: DefaultTimeoutSeconds,
		StorageDir:     DefaultStorageDir,
		GeneratedDir:   DefaultGeneratedDir,
		ListenAddr:     DefaultListenAddr,
		PDFLaTeX:       DefaultPDFLaTeX,
		Pandoc:         DefaultPandoc,
		LeftDelim:      DefaultLeftDelim,
		RightDelim:     DefaultRightDelim,
		LogType:        "json",
		LogLevel:       "info",
	}
}

// Timeout is the generation deadline.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadFile overlays the YAML file at filename onto c. Keys absent from the
// file keep their current value.
func (c *Config) LoadFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto c using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GENERATION_TIMEOUT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing GENERATION_TIMEOUT %q: %w", v, err)
		}
		c.TimeoutSeconds = n
	}

	strs := map[string]*string{
		"STORAGE_DIR":   &c.StorageDir,
		"GENERATED_DIR": &c.GeneratedDir,
		"LISTEN_ADDR":   &c.ListenAddr,
		"PDFLATEX_BIN":  &c.PDFLaTeX,
		"PANDOC_BIN":    &c.Pandoc,
		"CONTEXT_FILE":  &c.ContextFile,
		"LOG_TYPE":      &c.LogType,
		"LOG_LEVEL":     &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %d", c.TimeoutSeconds)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage directory is required")
	}
	if c.GeneratedDir == "" {
		return fmt.Errorf("generated directory is required")
	}
	if c.PDFLaTeX == "" {
		return fmt.Errorf("pdflatex binary is required")
	}
	if c.LeftDelim == "" || c.RightDelim == "" {
		return fmt.Errorf("template delimiters must not be empty")
	}
	return nil
}
