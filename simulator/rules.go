package simulator

import (
	"streetCA/config"
	"streetCA/element"
	"streetCA/utils"
)

// Accelerate 加速规则：速度未达vMax的车辆速度+1，不考虑前车间距
type Accelerate struct {
	vMax int
}

// NewAccelerate 创建加速规则
func NewAccelerate(vMax int) *Accelerate {
	if vMax <= 0 {
		panic("vMax must be positive")
	}
	return &Accelerate{vMax: vMax}
}

func (r *Accelerate) Apply(grid element.Grid) element.Grid {
	for _, lane := range grid {
		for i, v := range lane {
			if v >= 0 && v < r.vMax {
				lane[i] = v + 1
			}
		}
	}
	return grid
}

func (r *Accelerate) Descriptor() config.RuleConfig {
	return config.RuleConfig{
		Kind:   config.RuleAccelerate,
		Params: map[string]float64{"vMax": float64(r.vMax)},
	}
}

// Dawdling 随机减速规则：速度大于0的车辆以概率p独立减速1，
// 模拟驾驶员的迟疑。规则实例持有自己的随机流，跨时间步持续推进，
// 不会在每次调用时重新播种
type Dawdling struct {
	p      float64
	seed   uint64
	engine *utils.Engine
}

// NewDawdling 创建随机减速规则，p为减速概率，seed播种规则私有的随机流
func NewDawdling(p float64, seed uint64) *Dawdling {
	if p < 0 || p > 1 {
		panic("dawdling probability must be between 0 and 1")
	}
	return &Dawdling{p: p, seed: seed, engine: utils.NewEngine(seed)}
}

func (r *Dawdling) Apply(grid element.Grid) element.Grid {
	for _, lane := range grid {
		for i, v := range lane {
			// 每辆可减速的车都消耗一次随机数，保证抽取序列与p的取值无关
			if v > 0 && r.engine.PTrue(r.p) {
				lane[i] = v - 1
			}
		}
	}
	return grid
}

func (r *Dawdling) Descriptor() config.RuleConfig {
	return config.RuleConfig{
		Kind:   config.RuleDawdling,
		Params: map[string]float64{"p": r.p, "seed": float64(r.seed)},
	}
}

// AvoidCollision 避撞规则：向前（环形）扫描至多v个元胞寻找前车，
// 距离为d时将速度截断到d-1，即停在前车后一格
type AvoidCollision struct{}

// NewAvoidCollision 创建避撞规则
func NewAvoidCollision() *AvoidCollision {
	return &AvoidCollision{}
}

func (r *AvoidCollision) Apply(grid element.Grid) element.Grid {
	length := grid.Length()
	for _, lane := range grid {
		for i, v := range lane {
			if v <= 0 {
				continue
			}
			for d := 1; d <= v; d++ {
				if lane[(i+d)%length] >= 0 {
					lane[i] = d - 1
					break
				}
			}
		}
	}
	return grid
}

func (r *AvoidCollision) Descriptor() config.RuleConfig {
	return config.RuleConfig{Kind: config.RuleAvoidCollision}
}

// BreakOrTakeOver 避撞或超车规则：受阻车辆在相邻外侧车道的同一前向窗口
// 完全空闲时以原速度平移到外侧车道，否则按避撞规则刹车
// 同一时间步内已换道的车辆不会再次换道；最外侧车道的车辆只能刹车
type BreakOrTakeOver struct{}

// NewBreakOrTakeOver 创建避撞或超车规则
func NewBreakOrTakeOver() *BreakOrTakeOver {
	return &BreakOrTakeOver{}
}

func (r *BreakOrTakeOver) Apply(grid element.Grid) element.Grid {
	lanes := grid.Lanes()
	length := grid.Length()

	// 标记本时间步内换道而来的车辆，防止一步内超车两次
	moved := make([][]bool, lanes)
	for l := range moved {
		moved[l] = make([]bool, length)
	}

	for l := 0; l < lanes; l++ {
		for i, v := range grid[l] {
			if v <= 0 || moved[l][i] {
				continue
			}

			blockedAt := 0
			for d := 1; d <= v; d++ {
				if grid[l][(i+d)%length] >= 0 {
					blockedAt = d
					break
				}
			}
			if blockedAt == 0 {
				continue
			}

			if l+1 < lanes && r.windowFree(grid[l+1], i, v) {
				// 外侧车道空闲：以未截断的速度换道超车
				grid[l+1][i] = v
				moved[l+1][i] = true
				grid[l][i] = element.Empty
			} else {
				grid[l][i] = blockedAt - 1
			}
		}
	}
	return grid
}

// windowFree 判断车道中元胞i及其前方偏移1..v的窗口是否全部空闲
func (r *BreakOrTakeOver) windowFree(lane []int, i, v int) bool {
	length := len(lane)
	for d := 0; d <= v; d++ {
		if lane[(i+d)%length] >= 0 {
			return false
		}
	}
	return true
}

func (r *BreakOrTakeOver) Descriptor() config.RuleConfig {
	return config.RuleConfig{Kind: config.RuleBreakOrTakeOver}
}

// MoveForward 前进规则：每辆车移动到(i+v) mod length，车道不变
// 写入全新的空矩阵；上游正确刹车时不会出现目标冲突，
// 流水线装配错误导致的冲突会在状态替换时被守恒检查拦截
type MoveForward struct{}

// NewMoveForward 创建前进规则
func NewMoveForward() *MoveForward {
	return &MoveForward{}
}

func (r *MoveForward) Apply(grid element.Grid) element.Grid {
	length := grid.Length()
	next := element.NewEmptyGrid(grid.Lanes(), length)
	for l, lane := range grid {
		for i, v := range lane {
			if v >= 0 {
				next[l][(i+v)%length] = v
			}
		}
	}
	return next
}

func (r *MoveForward) Descriptor() config.RuleConfig {
	return config.RuleConfig{Kind: config.RuleMoveForward}
}

// MergeBack 并道规则：自车道0向外处理（不含最外侧车道），
// 空元胞的外侧同下标元胞有车时将其拉入并腾空来源
// 每个元胞每时间步至多参与一次交换（无论作为来源还是目标）
type MergeBack struct{}

// NewMergeBack 创建并道规则
func NewMergeBack() *MergeBack {
	return &MergeBack{}
}

func (r *MergeBack) Apply(grid element.Grid) element.Grid {
	lanes := grid.Lanes()
	length := grid.Length()

	swapped := make([][]bool, lanes)
	for l := range swapped {
		swapped[l] = make([]bool, length)
	}

	for l := 0; l < lanes-1; l++ {
		for i := 0; i < length; i++ {
			if swapped[l][i] || swapped[l+1][i] {
				continue
			}
			if grid[l][i] == element.Empty && grid[l+1][i] >= 0 {
				grid[l][i] = grid[l+1][i]
				grid[l+1][i] = element.Empty
				swapped[l][i] = true
				swapped[l+1][i] = true
			}
		}
	}
	return grid
}

func (r *MergeBack) Descriptor() config.RuleConfig {
	return config.RuleConfig{Kind: config.RuleMergeBack}
}

// DummyShuffle 诊断用非物理规则：每条车道整体右移一格
// 不属于标准物理流水线
type DummyShuffle struct{}

// NewDummyShuffle 创建诊断规则
func NewDummyShuffle() *DummyShuffle {
	return &DummyShuffle{}
}

func (r *DummyShuffle) Apply(grid element.Grid) element.Grid {
	length := grid.Length()
	next := element.NewEmptyGrid(grid.Lanes(), length)
	for l, lane := range grid {
		for i, v := range lane {
			next[l][(i+1)%length] = v
		}
	}
	return next
}

func (r *DummyShuffle) Descriptor() config.RuleConfig {
	return config.RuleConfig{Kind: config.RuleDummyShuffle}
}
