package utils

import (
	"golang.org/x/exp/rand"
)

// Engine 随机数引擎，包装golang.org/x/exp/rand
// 每个引擎实例持有独立的随机数流，由显式种子初始化，
// 模拟过程中不依赖任何全局随机源，保证可复现性
type Engine struct {
	*rand.Rand
}

// NewEngine 根据种子创建随机数引擎
func NewEngine(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// PTrue 以概率p返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}
