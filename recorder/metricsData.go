package recorder

import (
	"strconv"

	"streetCA/simulator"
)

// InitMetricsCSV 创建指标CSV文件并写入表头
func InitMetricsCSV(filename string) error {
	return initializeCSV(filename, []string{"timeStep", "averageRelativeSpeed", "carThroughput"})
}

// WriteMetricsCSV 把运行器的逐时间步指标追加到CSV文件，每个时间步一行
func WriteMetricsCSV(filename string, r *simulator.Runner) error {
	speeds := r.MetricAverageRelativeSpeed()
	throughputs := r.MetricCarThroughput()

	rows := make([][]string, len(speeds))
	for t := range speeds {
		rows[t] = []string{
			strconv.Itoa(t),
			strconv.FormatFloat(speeds[t], 'f', 6, 64),
			strconv.Itoa(throughputs[t]),
		}
	}
	return appendToCSV(filename, rows)
}
