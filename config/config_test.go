package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetCA/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
street:
  lanes: 2
  length: 100
  carCount: 20
  vMax: 5
  seed: 42
rules:
  - kind: Accelerate
    params: {vMax: 5}
  - kind: AvoidCollision
simulation:
  maxSteps: 50
  logInterval: 10
output:
  metricsCSV: out.csv
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Street.Lanes)
	assert.Equal(t, uint64(42), cfg.Street.Seed)
	assert.Equal(t, 50, cfg.Simulation.MaxSteps)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, config.RuleAccelerate, cfg.Rules[0].Kind)
	assert.Equal(t, 5.0, cfg.Rules[0].Params["vMax"])
	assert.Equal(t, "out.csv", cfg.Output.MetricsCSV)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
street:
  lanes: 2
  length: 100
  carCount: 20
  vMax: 5
  seed: 1
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// test: 未配置时填充默认时间步数与标准流水线
	assert.Equal(t, 250, cfg.Simulation.MaxSteps)
	require.NotEmpty(t, cfg.Rules)
	assert.Equal(t, config.RuleAccelerate, cfg.Rules[0].Kind)
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, `
street:
  lanes: 1
  length: 10
  carCount: 100
  vMax: 5
  seed: 1
`)
	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	single := config.DefaultRules(config.StreetConfig{Lanes: 1, Length: 100, CarCount: 10, VMax: 5, Seed: 3})
	require.Len(t, single, 4)
	assert.Equal(t, config.RuleAccelerate, single[0].Kind)
	assert.Equal(t, config.RuleAvoidCollision, single[1].Kind)
	assert.Equal(t, config.RuleDawdling, single[2].Kind)
	assert.Equal(t, config.RuleMoveForward, single[3].Kind)
	assert.Equal(t, 5.0, single[0].Params["vMax"])
	assert.Equal(t, 4.0, single[2].Params["seed"])

	multi := config.DefaultRules(config.StreetConfig{Lanes: 2, Length: 100, CarCount: 10, VMax: 5, Seed: 3})
	require.Len(t, multi, 5)
	assert.Equal(t, config.RuleBreakOrTakeOver, multi[1].Kind)
	assert.Equal(t, config.RuleMergeBack, multi[4].Kind)
}
