package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig 配置非法（非正参数、容量超限等）
var ErrInvalidConfig = errors.New("invalid configuration")

// 规则类型标识，注册表与配置文件共用
const (
	RuleAccelerate      = "Accelerate"
	RuleDawdling        = "Dawdling"
	RuleAvoidCollision  = "AvoidCollision"
	RuleBreakOrTakeOver = "BreakOrTakeOver"
	RuleMoveForward     = "MoveForward"
	RuleMergeBack       = "MergeBack"
	RuleDummyShuffle    = "DummyShuffle"
)

// 元胞编码为int8持久化，限制最大速度以保证可编码
const MaxVMax = 127

// Config 保存所有配置项的顶级结构
type Config struct {
	Street     StreetConfig     `yaml:"street" json:"street"`
	Rules      []RuleConfig     `yaml:"rules,omitempty" json:"rules,omitempty"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Output     OutputConfig     `yaml:"output" json:"output"`
}

// StreetConfig 保存道路相关的配置项
type StreetConfig struct {
	Lanes    int    `yaml:"lanes" json:"lanes"`
	Length   int    `yaml:"length" json:"length"`
	CarCount int    `yaml:"carCount" json:"carCount"`
	VMax     int    `yaml:"vMax" json:"vMax"`
	Seed     uint64 `yaml:"seed" json:"seed"`
}

// RuleConfig 一条规则的描述符：类型标识加数值参数
type RuleConfig struct {
	Kind   string             `yaml:"kind" json:"kind"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	MaxSteps    int `yaml:"maxSteps" json:"maxSteps"`
	LogInterval int `yaml:"logInterval" json:"logInterval"`
}

// OutputConfig 保存输出相关的配置项，留空表示跳过对应输出
type OutputConfig struct {
	MetricsCSV   string `yaml:"metricsCSV,omitempty" json:"metricsCSV,omitempty"`
	ArtifactFile string `yaml:"artifactFile,omitempty" json:"artifactFile,omitempty"`
	StorePath    string `yaml:"storePath,omitempty" json:"storePath,omitempty"`
}

// Load 从YAML文件加载配置，填充默认值并校验
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// 设置模拟参数的默认值
	if config.Simulation.MaxSteps <= 0 {
		config.Simulation.MaxSteps = 250
	}
	if config.Simulation.LogInterval < 0 {
		config.Simulation.LogInterval = 0
	}

	// 未配置规则时使用标准物理规则流水线
	if len(config.Rules) == 0 {
		config.Rules = DefaultRules(config.Street)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 校验道路参数
func (c StreetConfig) Validate() error {
	if c.Lanes <= 0 {
		return fmt.Errorf("%w: lanes must be positive, got %d", ErrInvalidConfig, c.Lanes)
	}
	if c.Length <= 0 {
		return fmt.Errorf("%w: length must be positive, got %d", ErrInvalidConfig, c.Length)
	}
	if c.CarCount <= 0 {
		return fmt.Errorf("%w: carCount must be positive, got %d", ErrInvalidConfig, c.CarCount)
	}
	if c.VMax <= 0 {
		return fmt.Errorf("%w: vMax must be positive, got %d", ErrInvalidConfig, c.VMax)
	}
	if c.VMax > MaxVMax {
		return fmt.Errorf("%w: vMax must not exceed %d, got %d", ErrInvalidConfig, MaxVMax, c.VMax)
	}
	if c.CarCount > c.Lanes*c.Length {
		return fmt.Errorf("%w: carCount %d exceeds capacity %d", ErrInvalidConfig, c.CarCount, c.Lanes*c.Length)
	}
	return nil
}

// Validate 校验完整配置
func (c *Config) Validate() error {
	if err := c.Street.Validate(); err != nil {
		return err
	}
	if c.Simulation.MaxSteps <= 0 {
		return fmt.Errorf("%w: maxSteps must be positive, got %d", ErrInvalidConfig, c.Simulation.MaxSteps)
	}
	for _, rule := range c.Rules {
		if rule.Kind == "" {
			return fmt.Errorf("%w: rule kind must not be empty", ErrInvalidConfig)
		}
	}
	return nil
}

// DefaultRules 返回给定道路的标准物理规则流水线描述符
// 顺序：加速 → 避撞（多车道时可借道超车） → 随机减速 → 前进 → 并回内侧车道
func DefaultRules(street StreetConfig) []RuleConfig {
	brake := RuleConfig{Kind: RuleAvoidCollision}
	if street.Lanes > 1 {
		brake = RuleConfig{Kind: RuleBreakOrTakeOver}
	}

	rules := []RuleConfig{
		{Kind: RuleAccelerate, Params: map[string]float64{"vMax": float64(street.VMax)}},
		brake,
		{Kind: RuleDawdling, Params: map[string]float64{"p": 0.2, "seed": float64(street.Seed + 1)}},
		{Kind: RuleMoveForward},
	}
	if street.Lanes > 1 {
		rules = append(rules, RuleConfig{Kind: RuleMergeBack})
	}
	return rules
}
