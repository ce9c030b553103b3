package simulator

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"streetCA/config"
	"streetCA/element"
)

// ErrUnknownRule 注册表中不存在的规则类型
var ErrUnknownRule = errors.New("unknown rule kind")

// Rule 规则接口：对道路状态做一次局部变换
// 输入输出形状一致；物理规则不改变车辆数
// 规则拥有传入的矩阵，可以就地修改，返回值的所有权交还调用方，
// 调用方不得再使用传入的矩阵
type Rule interface {
	Apply(grid element.Grid) element.Grid
	Descriptor() config.RuleConfig
}

// ruleRegistry 规则类型 → 构造函数，持久化恢复时按描述符重建规则
var ruleRegistry = map[string]func(params map[string]float64) (Rule, error){
	config.RuleAccelerate: func(params map[string]float64) (Rule, error) {
		vMax, ok := params["vMax"]
		if !ok {
			return nil, fmt.Errorf("%s requires param vMax", config.RuleAccelerate)
		}
		return NewAccelerate(int(vMax)), nil
	},
	config.RuleDawdling: func(params map[string]float64) (Rule, error) {
		p, ok := params["p"]
		if !ok {
			return nil, fmt.Errorf("%s requires param p", config.RuleDawdling)
		}
		return NewDawdling(p, uint64(params["seed"])), nil
	},
	config.RuleAvoidCollision: func(map[string]float64) (Rule, error) {
		return NewAvoidCollision(), nil
	},
	config.RuleBreakOrTakeOver: func(map[string]float64) (Rule, error) {
		return NewBreakOrTakeOver(), nil
	},
	config.RuleMoveForward: func(map[string]float64) (Rule, error) {
		return NewMoveForward(), nil
	},
	config.RuleMergeBack: func(map[string]float64) (Rule, error) {
		return NewMergeBack(), nil
	},
	config.RuleDummyShuffle: func(map[string]float64) (Rule, error) {
		return NewDummyShuffle(), nil
	},
}

// NewRule 根据描述符构造规则实例
func NewRule(desc config.RuleConfig) (Rule, error) {
	construct, ok := ruleRegistry[desc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, desc.Kind)
	}
	return construct(desc.Params)
}

// Pipeline 有序的规则列表，每个时间步按序应用
// 顺序是模拟语义的一部分
type Pipeline struct {
	rules []Rule
}

// NewPipeline 根据描述符列表构造规则流水线
func NewPipeline(descs []config.RuleConfig) (*Pipeline, error) {
	rules := make([]Rule, 0, len(descs))
	for _, desc := range descs {
		rule, err := NewRule(desc)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return &Pipeline{rules: rules}, nil
}

// PipelineOf 直接由规则实例构造流水线
func PipelineOf(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Apply 按序应用所有规则，前一条规则的输出作为后一条的输入
func (p *Pipeline) Apply(grid element.Grid) element.Grid {
	for _, rule := range p.rules {
		grid = rule.Apply(grid)
	}
	return grid
}

// Descriptors 返回按序的规则描述符列表
func (p *Pipeline) Descriptors() []config.RuleConfig {
	return lo.Map(p.rules, func(rule Rule, _ int) config.RuleConfig {
		return rule.Descriptor()
	})
}

// Len 返回规则数量
func (p *Pipeline) Len() int {
	return len(p.rules)
}
