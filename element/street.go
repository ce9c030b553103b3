package element

import (
	"errors"
	"fmt"

	"streetCA/config"
	"streetCA/utils"
)

// ErrShapeOrCountMismatch 替换状态时形状或车辆数不一致
var ErrShapeOrCountMismatch = errors.New("grid shape or car count mismatch")

// Street 表示一条多车道环形道路及其当前状态
// 车辆数在构造时固定，规则流水线的每次提交都会重新校验守恒
type Street struct {
	cfg  config.StreetConfig
	grid Grid
}

// NewStreet 根据配置创建道路并生成初始状态
// 初始化使用以Seed播种的独立随机流：先为每辆车抽取[0, vMax)内的初速度，
// 再在lanes×length个元胞中无放回地均匀抽取车辆位置
func NewStreet(cfg config.StreetConfig) (*Street, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := utils.NewEngine(cfg.Seed)

	velocities := make([]int, cfg.CarCount)
	for i := range velocities {
		velocities[i] = engine.Intn(cfg.VMax)
	}

	grid := NewEmptyGrid(cfg.Lanes, cfg.Length)
	positions := engine.Perm(cfg.Lanes * cfg.Length)
	for i, pos := range positions[:cfg.CarCount] {
		grid[pos/cfg.Length][pos%cfg.Length] = velocities[i]
	}

	return &Street{cfg: cfg, grid: grid}, nil
}

// Config 返回道路配置
func (s *Street) Config() config.StreetConfig {
	return s.cfg
}

// State 返回当前状态
// 返回的是活动矩阵本身，调用方如需修改必须先Clone
func (s *Street) State() Grid {
	return s.grid
}

// Replace 用新状态替换当前状态
// 新状态必须与配置的形状一致且车辆数守恒，否则返回ErrShapeOrCountMismatch
func (s *Street) Replace(next Grid) error {
	if next.Lanes() != s.cfg.Lanes || next.Length() != s.cfg.Length {
		return fmt.Errorf("%w: want %dx%d, got %dx%d",
			ErrShapeOrCountMismatch, s.cfg.Lanes, s.cfg.Length, next.Lanes(), next.Length())
	}
	if count := next.CarCount(); count != s.cfg.CarCount {
		return fmt.Errorf("%w: want %d cars, got %d", ErrShapeOrCountMismatch, s.cfg.CarCount, count)
	}
	s.grid = next
	return nil
}
