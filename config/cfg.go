package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// PathsConfig describes ebook repository layout. Relative directories are
	// resolved against Repo.
	PathsConfig struct {
		Repo   string `yaml:"repo" sanitize:"path_clean" validate:"required"`
		Ebooks string `yaml:"ebooks" validate:"required"`
		Text   string `yaml:"text" validate:"required"`
		Blocks string `yaml:"blocks" validate:"required"`
		Images string `yaml:"images" validate:"required"`
		Fonts  string `yaml:"fonts" validate:"required"`
		Styles string `yaml:"styles" validate:"required"`
		Epubs  string `yaml:"epubs" validate:"required"`
	}

	CoverConfig struct {
		Width  int `yaml:"width" validate:"min=100"`
		Height int `yaml:"height" validate:"min=100"`
	}

	DocumentConfig struct {
		FixZip                bool        `yaml:"fix_zip"`
		OutputNameTemplate    string      `yaml:"output_name_template"`
		FileNameTransliterate bool        `yaml:"file_name_transliterate"`
		DefaultCaption        string      `yaml:"default_caption"`
		Cover                 CoverConfig `yaml:"cover"`
	}

	LinkCheckConfig struct {
		Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
		MaxRedirects   int           `yaml:"max_redirects" validate:"gte=0"`
		UserAgent      string        `yaml:"user_agent"`
	}

	EPUBCheckConfig struct {
		Java string `yaml:"java" validate:"required"`
		Jar  string `yaml:"jar" sanitize:"path_clean" validate:"required"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Paths     PathsConfig     `yaml:"paths"`
		Document  DocumentConfig  `yaml:"document"`
		LinkCheck LinkCheckConfig `yaml:"link_check"`
		EPUBCheck EPUBCheckConfig `yaml:"epubcheck"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

// used when nothing is left of the file name after cleaning
const untitled = "untitled"

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Resolve returns directory location taking repository root into account.
func (p *PathsConfig) Resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Repo, dir)
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadEnvironment reads variables from dotenv file so configuration template
// could refer to them. Variables already present in the environment are not
// overwritten. Absent default file is not an error.
func LoadEnvironment(path string) error {
	explicit := len(path) > 0
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load environment from %s: %w", path, err)
	}
	return nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
