// Package settings holds the client configuration resolved from flags,
// environment (SOLOMON_*) and the config file.
package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/solomon/pkg/attachments"
	"github.com/go-go-golems/solomon/pkg/security"
	"github.com/go-go-golems/solomon/pkg/store"
	"github.com/go-go-golems/solomon/pkg/transport/httpbackend"
	"github.com/go-go-golems/solomon/pkg/transport/openai"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type BackendKind string

const (
	BackendHTTP   BackendKind = "http"
	BackendOpenAI BackendKind = "openai"
	BackendMock   BackendKind = "mock"
)

// viper keys, also used as flag names
const (
	KeyBackend              = "backend"
	KeyBackendURL           = "backend-url"
	KeyBackendTimeout       = "backend-timeout"
	KeyTargetAgent          = "target-agent"
	KeyAllowInsecureBackend = "allow-insecure-backend"
	KeyOpenAIAPIKey         = "openai-api-key"
	KeyOpenAIBaseURL        = "openai-base-url"
	KeyOpenAIModel          = "openai-model"
	KeyStore                = "store"
	KeyStorePath            = "store-path"
	KeyMaxAttachmentSize    = "max-attachment-size"
)

type BackendSettings struct {
	Kind          BackendKind   `yaml:"kind"`
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	TargetAgentID string        `yaml:"target_agent_id,omitempty"`
	AllowInsecure bool          `yaml:"allow_insecure"`
}

type OpenAISettings struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type StoreSettings struct {
	Kind store.Kind `yaml:"kind"`
	Path string     `yaml:"path,omitempty"`
}

type Settings struct {
	Backend           BackendSettings `yaml:"backend"`
	OpenAI            OpenAISettings  `yaml:"openai"`
	Store             StoreSettings   `yaml:"store"`
	MaxAttachmentSize int64           `yaml:"max_attachment_size"`
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

// Defaults returns settings for a backend on localhost and a state file in
// the user config directory.
func Defaults() *Settings {
	return &Settings{
		Backend: BackendSettings{
			Kind:          BackendHTTP,
			URL:           httpbackend.DefaultBaseURL,
			Timeout:       2 * time.Minute,
			AllowInsecure: true,
		},
		OpenAI: OpenAISettings{
			Model: openai.DefaultModel,
		},
		Store: StoreSettings{
			Kind: store.KindFile,
			Path: DefaultStorePath(store.KindFile),
		},
		MaxAttachmentSize: attachments.DefaultMaxSize,
	}
}

// DefaultStorePath picks a file under the user config directory, falling
// back to the working directory.
func DefaultStorePath(kind store.Kind) string {
	name := "state.json"
	if kind == store.KindSQLite {
		name = "state.db"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "solomon", name)
}

// SetDefaults registers the defaults with v so that unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyBackend, string(d.Backend.Kind))
	v.SetDefault(KeyBackendURL, d.Backend.URL)
	v.SetDefault(KeyBackendTimeout, d.Backend.Timeout)
	v.SetDefault(KeyAllowInsecureBackend, d.Backend.AllowInsecure)
	v.SetDefault(KeyOpenAIModel, d.OpenAI.Model)
	v.SetDefault(KeyStore, string(d.Store.Kind))
	v.SetDefault(KeyMaxAttachmentSize, d.MaxAttachmentSize)
}

// FromViper resolves and validates the settings held by v.
func FromViper(v *viper.Viper) (*Settings, error) {
	s := Defaults()
	if v.IsSet(KeyBackend) {
		s.Backend.Kind = BackendKind(v.GetString(KeyBackend))
	}
	if v.IsSet(KeyBackendURL) {
		s.Backend.URL = v.GetString(KeyBackendURL)
	}
	if v.IsSet(KeyBackendTimeout) {
		s.Backend.Timeout = v.GetDuration(KeyBackendTimeout)
	}
	if v.IsSet(KeyAllowInsecureBackend) {
		s.Backend.AllowInsecure = v.GetBool(KeyAllowInsecureBackend)
	}
	s.Backend.TargetAgentID = v.GetString(KeyTargetAgent)

	s.OpenAI.APIKey = v.GetString(KeyOpenAIAPIKey)
	s.OpenAI.BaseURL = v.GetString(KeyOpenAIBaseURL)
	if v.IsSet(KeyOpenAIModel) {
		s.OpenAI.Model = v.GetString(KeyOpenAIModel)
	}

	if v.IsSet(KeyStore) {
		s.Store.Kind = store.Kind(v.GetString(KeyStore))
		s.Store.Path = DefaultStorePath(s.Store.Kind)
	}
	if p := v.GetString(KeyStorePath); p != "" {
		s.Store.Path = p
	}
	if v.IsSet(KeyMaxAttachmentSize) {
		s.MaxAttachmentSize = v.GetInt64(KeyMaxAttachmentSize)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// URLOptions returns the outbound URL rules for the backend.
func (s *Settings) URLOptions() security.OutboundURLOptions {
	if s.Backend.AllowInsecure {
		return security.LocalBackend
	}
	return security.OutboundURLOptions{}
}

func (s *Settings) Validate() error {
	switch s.Backend.Kind {
	case BackendHTTP:
		if err := security.ValidateOutboundURL(s.Backend.URL, s.URLOptions()); err != nil {
			return errors.Wrapf(err, "invalid %s", KeyBackendURL)
		}
	case BackendOpenAI:
		if s.OpenAI.APIKey == "" {
			return errors.Errorf("%s is required for the openai backend", KeyOpenAIAPIKey)
		}
		if s.OpenAI.BaseURL != "" {
			if err := security.ValidateOutboundURL(s.OpenAI.BaseURL, s.URLOptions()); err != nil {
				return errors.Wrapf(err, "invalid %s", KeyOpenAIBaseURL)
			}
		}
	case BackendMock:
	default:
		return errors.Errorf("unknown backend %q", s.Backend.Kind)
	}

	switch s.Store.Kind {
	case store.KindFile, store.KindSQLite:
		if s.Store.Path == "" {
			return errors.Errorf("%s is required for the %s store", KeyStorePath, s.Store.Kind)
		}
	case store.KindMemory:
	default:
		return errors.Errorf("unknown store %q", s.Store.Kind)
	}

	if s.MaxAttachmentSize <= 0 {
		return errors.Errorf("%s must be positive", KeyMaxAttachmentSize)
	}
	return nil
}

// YAML renders the settings with the API key masked.
func (s *Settings) YAML() ([]byte, error) {
	c := s.Clone()
	if c.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = "****"
	}
	return yaml.Marshal(c)
}
