package element

// Empty 表示空元胞
const Empty = -1

// Grid 表示lanes × length的元胞矩阵
// 元胞取值-1表示空，v >= 0表示一辆速度为v（格/步）的车辆
// 车道轴有序，下标0为约定的最内侧（优先）车道；元胞轴为环形，在length处回绕
type Grid [][]int

// NewEmptyGrid 创建一个全空的元胞矩阵
func NewEmptyGrid(lanes, length int) Grid {
	if lanes <= 0 {
		panic("lanes must be positive")
	}
	if length <= 0 {
		panic("length must be positive")
	}

	grid := make(Grid, lanes)
	for l := range grid {
		lane := make([]int, length)
		for i := range lane {
			lane[i] = Empty
		}
		grid[l] = lane
	}
	return grid
}

// Lanes 返回车道数
func (g Grid) Lanes() int {
	return len(g)
}

// Length 返回车道长度
func (g Grid) Length() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Clone 返回深拷贝
func (g Grid) Clone() Grid {
	clone := make(Grid, len(g))
	for l, lane := range g {
		clone[l] = make([]int, len(lane))
		copy(clone[l], lane)
	}
	return clone
}

// CarCount 返回被占用元胞的数量
func (g Grid) CarCount() int {
	count := 0
	for _, lane := range g {
		for _, v := range lane {
			if v >= 0 {
				count++
			}
		}
	}
	return count
}

// SameShape 判断两个矩阵形状是否一致
func (g Grid) SameShape(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for l := range g {
		if len(g[l]) != len(other[l]) {
			return false
		}
	}
	return true
}

// Equal 判断两个矩阵逐元胞相等
func (g Grid) Equal(other Grid) bool {
	if !g.SameShape(other) {
		return false
	}
	for l, lane := range g {
		for i, v := range lane {
			if other[l][i] != v {
				return false
			}
		}
	}
	return true
}
