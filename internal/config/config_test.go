package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644)
	require.NoError(t, err)
	return dir
}

// Keys with underscores (base_url, api_key, request_timeout_seconds,
// expire_hours) only bind through viper's mapstructure decoding; a plain
// yaml unmarshal of Config silently drops them all.
func TestLoadConfig_UnderscoreKeysBind(t *testing.T) {
	viper.Reset()
	dir := writeConfigFile(t, `
server:
  port: "8080"
  mode: debug
database:
  host: localhost
  port: 3306
  user: root
  password: secret
  dbname: gapmentor
  charset: utf8mb4
  parsetime: true
jwt:
  secret: test-secret
  expire_hours: 72
ai:
  base_url: https://llm.example.com/v1
  api_key: sk-test
  model: gpt-4o-mini
  request_timeout_seconds: 30
quiz:
  descriptive_fraction: 0.3
rate_limit:
  max_requests: 100
  window_minutes: 1
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://llm.example.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 0.3, cfg.Quiz.DescriptiveFraction)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	dir := writeConfigFile(t, `
server:
  mode: debug
jwt:
  secret: test-secret
  expire_hours: 24
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.AI.RequestTimeout, "missing timeout falls back to 60s")
	assert.Equal(t, 20, cfg.Quiz.MaxQuestions)
	assert.Equal(t, 10, cfg.Quiz.DefaultQuestions)
}

func TestLoadConfig_ReleaseRejectsWeakSecret(t *testing.T) {
	viper.Reset()
	dir := writeConfigFile(t, `
server:
  mode: release
jwt:
  secret: short
  expire_hours: 24
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsBadDescriptiveFraction(t *testing.T) {
	viper.Reset()
	dir := writeConfigFile(t, `
server:
  mode: debug
jwt:
  secret: test-secret
  expire_hours: 24
quiz:
  descriptive_fraction: 1.5
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
