package settings

import (
	"testing"
	"time"

	"github.com/go-go-golems/solomon/pkg/store"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultsAreValid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	s, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, BackendHTTP, s.Backend.Kind)
	assert.Equal(t, "http://localhost:5001", s.Backend.URL)
	assert.Equal(t, 2*time.Minute, s.Backend.Timeout)
	assert.Equal(t, store.KindFile, s.Store.Kind)
	assert.NotEmpty(t, s.Store.Path)
}

func TestStrictBackendRejectsLocalhost(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyAllowInsecureBackend, false)
	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyBackendURL)
}

func TestOpenAIRequiresKey(t *testing.T) {
	v := viper.New()
	v.Set(KeyBackend, "openai")
	_, err := FromViper(v)
	require.Error(t, err)

	v.Set(KeyOpenAIAPIKey, "sk-test")
	v.Set(KeyOpenAIModel, "gpt-x")
	s, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "gpt-x", s.OpenAI.Model)
}

func TestStoreSelection(t *testing.T) {
	v := viper.New()
	v.Set(KeyStore, "sqlite")
	s, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, store.KindSQLite, s.Store.Kind)
	assert.Contains(t, s.Store.Path, "state.db")

	v.Set(KeyStorePath, "/tmp/x.db")
	s, err = FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", s.Store.Path)

	v.Set(KeyStore, "redis")
	_, err = FromViper(v)
	require.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	v := viper.New()
	v.Set(KeyBackend, "carrier-pigeon")
	_, err := FromViper(v)
	require.Error(t, err)
}

func TestCloneAndYAMLMasksKey(t *testing.T) {
	s := Defaults()
	s.OpenAI.APIKey = "sk-secret"
	c := s.Clone()
	c.Backend.URL = "https://other"
	assert.Equal(t, "http://localhost:5001", s.Backend.URL)

	b, err := s.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(b), "sk-secret")
	assert.Equal(t, "sk-secret", s.OpenAI.APIKey)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "backend")
}
