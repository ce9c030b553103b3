package simulator

import (
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"streetCA/element"
)

// MetricAverageRelativeSpeed 返回每个时间步的平均相对速度
// 相对速度为被占用元胞速度均值与vMax之比，取值[0, 1]
// 历史为空时返回maxSteps个零
func (r *Runner) MetricAverageRelativeSpeed() []float64 {
	if len(r.history) == 0 {
		return make([]float64, r.maxSteps)
	}

	vMax := float64(r.street.Config().VMax)
	return lo.Map(r.history, func(grid element.Grid, _ int) float64 {
		speeds := make([]float64, 0, r.street.Config().CarCount)
		for _, lane := range grid {
			for _, v := range lane {
				if v >= 0 {
					speeds = append(speeds, float64(v))
				}
			}
		}
		if len(speeds) == 0 {
			return 0
		}
		return stat.Mean(speeds, nil) / vMax
	})
}

// MetricCarThroughput 返回每个时间步位于道路末段的车辆数
// 末段为每条车道最后length/10个元胞（向下取整），length < 10时恒为0
// 历史为空时返回maxSteps个零
func (r *Runner) MetricCarThroughput() []int {
	if len(r.history) == 0 {
		return make([]int, r.maxSteps)
	}

	length := r.street.Config().Length
	window := length / 10
	return lo.Map(r.history, func(grid element.Grid, _ int) int {
		count := 0
		for _, lane := range grid {
			for i := length - window; i < length; i++ {
				if lane[i] >= 0 {
					count++
				}
			}
		}
		return count
	})
}
