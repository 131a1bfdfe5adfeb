package eventhub

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// HubConfig holds the tunables the hub reads at startup and, for the
// fields marked dynamic below, on every config file change.
type HubConfig struct {
	// DefaultResponseTimeout is used by callers of RegisterResponseListener
	// that don't specify their own timeout. Dynamic.
	DefaultResponseTimeout time.Duration `toml:"default_response_timeout" yaml:"default_response_timeout"`

	// DefaultBarrier is the barrier mode callers of GetSharedState get when
	// they don't specify their own. Dynamic.
	DefaultBarrier bool `toml:"default_barrier" yaml:"default_barrier"`

	// PreprocessorAllowList, if non-empty, restricts RegisterPreprocessor to
	// names present here. Checked only at registration time; already
	// registered preprocessors are never retroactively removed.
	PreprocessorAllowList []string `toml:"preprocessor_allow_list" yaml:"preprocessor_allow_list"`
}

// DefaultHubConfig returns the configuration a hub uses if none is loaded.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		DefaultResponseTimeout: 5 * time.Second,
		DefaultBarrier:         false,
	}
}

// Feeder reads configuration data into structure, matching the teacher's
// Feeder abstraction (feed from one source, try the next on ErrConfigSectionMissing).
type Feeder interface {
	Feed(structure interface{}) error
}

// fileFeeder decodes a TOML or YAML file into structure based on its extension.
type fileFeeder struct {
	path string
}

func NewFileFeeder(path string) Feeder {
	return &fileFeeder{path: path}
}

func (f *fileFeeder) Feed(structure interface{}) error {
	if _, err := os.Stat(f.path); err != nil {
		return ErrConfigSectionMissing
	}

	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(f.path)
		if err != nil {
			return ErrConfigFeederFailed
		}
		if err := yaml.Unmarshal(b, structure); err != nil {
			return ErrConfigFeederFailed
		}
		return nil
	default:
		if _, err := toml.DecodeFile(f.path, structure); err != nil {
			return ErrConfigFeederFailed
		}
		return nil
	}
}

// envFeeder loosely coerces a handful of environment variables onto
// HubConfig using golobby/cast, for overrides that don't warrant a file.
type envFeeder struct {
	prefix string
}

func NewEnvFeeder(prefix string) Feeder {
	return &envFeeder{prefix: prefix}
}

func (f *envFeeder) Feed(structure interface{}) error {
	cfg, ok := structure.(*HubConfig)
	if !ok {
		return ErrConfigFeederFailed
	}

	if v, ok := os.LookupEnv(f.prefix + "DEFAULT_RESPONSE_TIMEOUT"); ok {
		d, err := cast.ToString(v)
		if err != nil {
			return ErrConfigFeederFailed
		}
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return ErrConfigFeederFailed
		}
		cfg.DefaultResponseTimeout = parsed
	}
	if v, ok := os.LookupEnv(f.prefix + "DEFAULT_BARRIER"); ok {
		b, err := cast.ToBool(v)
		if err != nil {
			return ErrConfigFeederFailed
		}
		cfg.DefaultBarrier = b
	}
	if v, ok := os.LookupEnv(f.prefix + "PREPROCESSOR_ALLOW_LIST"); ok && v != "" {
		cfg.PreprocessorAllowList = strings.Split(v, ",")
	}
	return nil
}

// LoadConfig feeds cfg through each feeder in order, starting from
// DefaultHubConfig and letting each subsequent feeder override the last.
// A feeder returning ErrConfigSectionMissing is skipped, not fatal - the
// way the teacher's feeder chain treats an absent optional source.
func LoadConfig(feeders ...Feeder) (HubConfig, error) {
	cfg := DefaultHubConfig()
	for _, f := range feeders {
		if err := f.Feed(&cfg); err != nil {
			if err == ErrConfigSectionMissing {
				continue
			}
			return cfg, err
		}
	}
	return cfg, nil
}
