package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetCA/config"
	"streetCA/element"
	"streetCA/simulator"
)

func newTestRunner(t *testing.T, cfg config.StreetConfig, steps int) *simulator.Runner {
	t.Helper()
	street, err := element.NewStreet(cfg)
	require.NoError(t, err)
	pipeline, err := simulator.NewPipeline(config.DefaultRules(cfg))
	require.NoError(t, err)
	return simulator.NewRunner(street, pipeline, steps)
}

func TestRunnerHistoryConvention(t *testing.T) {
	cfg := config.StreetConfig{Lanes: 2, Length: 50, CarCount: 10, VMax: 5, Seed: 7}
	street, err := element.NewStreet(cfg)
	require.NoError(t, err)
	initial := street.State().Clone()

	pipeline, err := simulator.NewPipeline(config.DefaultRules(cfg))
	require.NoError(t, err)
	runner := simulator.NewRunner(street, pipeline, 20)
	require.NoError(t, runner.Run())

	// test: history[0]为未经修改的初始状态，长度等于maxSteps
	history := runner.History()
	require.Len(t, history, 20)
	assert.True(t, history[0].Equal(initial))

	// test: 历史条目不与活动状态共享内存
	assert.NotSame(t, &street.State()[0][0], &history[19][0][0])
}

func TestRunnerRerunFails(t *testing.T) {
	cfg := config.StreetConfig{Lanes: 1, Length: 30, CarCount: 5, VMax: 5, Seed: 3}
	runner := newTestRunner(t, cfg, 10)
	require.NoError(t, runner.Run())
	assert.ErrorIs(t, runner.Run(), simulator.ErrAlreadyRun)
	assert.Len(t, runner.History(), 10)
}

func TestRunnerDeterminism(t *testing.T) {
	// test: 相同配置（含种子）的两次运行产生逐元胞相同的历史
	cfg := config.StreetConfig{Lanes: 2, Length: 60, CarCount: 20, VMax: 6, Seed: 13}
	a := newTestRunner(t, cfg, 40)
	b := newTestRunner(t, cfg, 40)
	require.NoError(t, a.Run())
	require.NoError(t, b.Run())

	require.Len(t, b.History(), len(a.History()))
	for i := range a.History() {
		assert.True(t, a.History()[i].Equal(b.History()[i]), "step %d", i)
	}
}

func TestRunnerConservation(t *testing.T) {
	// test: 标准物理流水线下每个时间步的车辆数守恒
	cfg := config.StreetConfig{Lanes: 3, Length: 50, CarCount: 30, VMax: 5, Seed: 21}
	runner := newTestRunner(t, cfg, 60)
	require.NoError(t, runner.Run())

	for i, grid := range runner.History() {
		assert.Equal(t, cfg.CarCount, grid.CarCount(), "step %d", i)
	}
}

func TestRunnerEndToEndSingleLane(t *testing.T) {
	cfg := config.StreetConfig{Lanes: 1, Length: 20, CarCount: 3, VMax: 5, Seed: 1}
	street, err := element.NewStreet(cfg)
	require.NoError(t, err)

	pipeline := simulator.PipelineOf(
		simulator.NewAccelerate(5),
		simulator.NewAvoidCollision(),
		simulator.NewDawdling(0, 1),
		simulator.NewMoveForward(),
	)
	runner := simulator.NewRunner(street, pipeline, 10)
	require.NoError(t, runner.Run())

	history := runner.History()
	require.Len(t, history, 10)
	for i, grid := range history {
		assert.Equal(t, 3, grid.CarCount(), "step %d", i)
		for _, lane := range grid {
			for _, v := range lane {
				if v >= 0 {
					assert.LessOrEqual(t, v, cfg.VMax)
				}
			}
		}
	}
}

func TestRunnerMetricsBounds(t *testing.T) {
	cfg := config.StreetConfig{Lanes: 2, Length: 40, CarCount: 16, VMax: 5, Seed: 5}
	runner := newTestRunner(t, cfg, 30)
	require.NoError(t, runner.Run())

	speeds := runner.MetricAverageRelativeSpeed()
	require.Len(t, speeds, 30)
	for i, s := range speeds {
		assert.GreaterOrEqual(t, s, 0.0, "step %d", i)
		assert.LessOrEqual(t, s, 1.0, "step %d", i)
	}

	throughputs := runner.MetricCarThroughput()
	require.Len(t, throughputs, 30)
	for i, c := range throughputs {
		assert.GreaterOrEqual(t, c, 0, "step %d", i)
		assert.LessOrEqual(t, c, cfg.CarCount, "step %d", i)
	}
}

func TestRunnerMetricsBeforeRun(t *testing.T) {
	// test: 未运行的运行器返回maxSteps个零
	cfg := config.StreetConfig{Lanes: 1, Length: 30, CarCount: 5, VMax: 5, Seed: 2}
	runner := newTestRunner(t, cfg, 15)

	speeds := runner.MetricAverageRelativeSpeed()
	require.Len(t, speeds, 15)
	for _, s := range speeds {
		assert.Zero(t, s)
	}
	throughputs := runner.MetricCarThroughput()
	require.Len(t, throughputs, 15)
	for _, c := range throughputs {
		assert.Zero(t, c)
	}
}

func TestRunnerThroughputShortStreet(t *testing.T) {
	// test: length < 10时末段窗口为0，通过量恒为0
	cfg := config.StreetConfig{Lanes: 1, Length: 8, CarCount: 2, VMax: 3, Seed: 4}
	runner := newTestRunner(t, cfg, 10)
	require.NoError(t, runner.Run())
	for _, c := range runner.MetricCarThroughput() {
		assert.Zero(t, c)
	}
}

func TestNewRunnerPanics(t *testing.T) {
	cfg := config.StreetConfig{Lanes: 1, Length: 30, CarCount: 5, VMax: 5, Seed: 2}
	street, err := element.NewStreet(cfg)
	require.NoError(t, err)
	pipeline := simulator.PipelineOf(simulator.NewMoveForward())

	assert.Panics(t, func() { simulator.NewRunner(nil, pipeline, 10) })
	assert.Panics(t, func() { simulator.NewRunner(street, nil, 10) })
	assert.Panics(t, func() { simulator.NewRunner(street, pipeline, 0) })
}
