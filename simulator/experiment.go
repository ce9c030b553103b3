package simulator

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"streetCA/config"
	"streetCA/element"
	"streetCA/utils"
)

// Experiment 密度扫描实验：对一组车辆数各做若干次独立模拟并汇总指标
// 每个(车辆数, 重复序号)组合是一次完全独立的顺序模拟，
// 种子由基准种子和组合下标确定性派生，结果与调度顺序无关
type Experiment struct {
	Street      config.StreetConfig // 道路模板，CarCount与Seed按组合覆盖
	Rules       func(config.StreetConfig) []config.RuleConfig
	CarCounts   []int
	Steps       int
	Repetitions int
	Seed        uint64
}

// ExperimentResult 单个车辆数的汇总结果
type ExperimentResult struct {
	CarCount       int
	Density        float64
	MeanSpeed      float64
	MeanThroughput float64
}

// Run 在workers个工作协程上执行全部模拟并按CarCounts顺序返回汇总结果
func (e *Experiment) Run(workers int) ([]ExperimentResult, error) {
	if len(e.CarCounts) == 0 {
		return nil, fmt.Errorf("%w: experiment needs at least one car count", config.ErrInvalidConfig)
	}
	if e.Steps <= 0 {
		return nil, fmt.Errorf("%w: experiment steps must be positive, got %d", config.ErrInvalidConfig, e.Steps)
	}
	if e.Repetitions <= 0 {
		return nil, fmt.Errorf("%w: experiment repetitions must be positive, got %d", config.ErrInvalidConfig, e.Repetitions)
	}

	rules := e.Rules
	if rules == nil {
		rules = config.DefaultRules
	}

	type cellResult struct {
		speed      float64
		throughput float64
		err        error
	}
	results := make([][]cellResult, len(e.CarCounts))
	for ci := range results {
		results[ci] = make([]cellResult, e.Repetitions)
	}

	pool := utils.NewWorkerPool(workers)
	var wg sync.WaitGroup

	log.Infof("experiment start: %d car counts x %d repetitions, %d steps each on %d workers",
		len(e.CarCounts), e.Repetitions, e.Steps, pool.Workers())

	for ci, carCount := range e.CarCounts {
		for rep := 0; rep < e.Repetitions; rep++ {
			wg.Add(1)
			pool.Submit(func() {
				defer wg.Done()
				speed, throughput, err := e.runCell(rules, carCount, ci*e.Repetitions+rep)
				results[ci][rep] = cellResult{speed: speed, throughput: throughput, err: err}
			})
		}
	}

	wg.Wait()
	pool.Stop()

	aggregated := make([]ExperimentResult, 0, len(e.CarCounts))
	capacity := float64(e.Street.Lanes * e.Street.Length)
	for ci, carCount := range e.CarCounts {
		speeds := make([]float64, e.Repetitions)
		throughputs := make([]float64, e.Repetitions)
		for rep, cell := range results[ci] {
			if cell.err != nil {
				return nil, fmt.Errorf("carCount %d repetition %d: %w", carCount, rep, cell.err)
			}
			speeds[rep] = cell.speed
			throughputs[rep] = cell.throughput
		}
		aggregated = append(aggregated, ExperimentResult{
			CarCount:       carCount,
			Density:        float64(carCount) / capacity,
			MeanSpeed:      stat.Mean(speeds, nil),
			MeanThroughput: stat.Mean(throughputs, nil),
		})
	}

	log.Infof("experiment completed: %d aggregated results", len(aggregated))
	return aggregated, nil
}

// runCell 执行一次独立模拟，返回整个运行的平均相对速度与平均通过量
func (e *Experiment) runCell(rules func(config.StreetConfig) []config.RuleConfig, carCount, cellIndex int) (float64, float64, error) {
	cfg := e.Street
	cfg.CarCount = carCount
	cfg.Seed = e.Seed + uint64(cellIndex)

	street, err := element.NewStreet(cfg)
	if err != nil {
		return 0, 0, err
	}
	pipeline, err := NewPipeline(rules(cfg))
	if err != nil {
		return 0, 0, err
	}

	runner := NewRunner(street, pipeline, e.Steps)
	if err := runner.Run(); err != nil {
		return 0, 0, err
	}

	speeds := runner.MetricAverageRelativeSpeed()
	throughputs := runner.MetricCarThroughput()
	counts := make([]float64, len(throughputs))
	for i, c := range throughputs {
		counts[i] = float64(c)
	}
	return stat.Mean(speeds, nil), stat.Mean(counts, nil), nil
}
