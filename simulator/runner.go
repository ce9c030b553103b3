package simulator

import (
	"errors"
	"fmt"

	"streetCA/element"
)

// ErrAlreadyRun 重复调用Run
var ErrAlreadyRun = errors.New("runner has already been run")

// runnerState 运行器生命周期状态
type runnerState int

const (
	stateUninitialized runnerState = iota
	stateRunning
	stateCompleted
)

// Runner 模拟运行器：驱动时间步循环并记录历史
//
// 历史约定：history[0]为未经修改的初始状态，之后每个时间步把当前状态
// 的副本送入规则流水线，提交新状态并追加到历史，因此运行结束后
// len(History()) == maxSteps。历史只增不减，条目不与活动状态共享内存
type Runner struct {
	street      *element.Street
	pipeline    *Pipeline
	maxSteps    int
	logInterval int
	state       runnerState
	history     []element.Grid
}

// NewRunner 创建运行器
func NewRunner(street *element.Street, pipeline *Pipeline, maxSteps int) *Runner {
	if street == nil {
		panic("street must not be nil")
	}
	if pipeline == nil {
		panic("pipeline must not be nil")
	}
	if maxSteps <= 0 {
		panic("maxSteps must be positive")
	}
	return &Runner{street: street, pipeline: pipeline, maxSteps: maxSteps}
}

// RestoreRunner 由持久化层恢复一个已完成的运行器
// 历史按原样接管，maxSteps取历史长度
func RestoreRunner(street *element.Street, pipeline *Pipeline, history []element.Grid) *Runner {
	if len(history) == 0 {
		panic("history must not be empty")
	}
	return &Runner{
		street:   street,
		pipeline: pipeline,
		maxSteps: len(history),
		state:    stateCompleted,
		history:  history,
	}
}

// SetLogInterval 设置进度日志间隔（时间步），0表示关闭
func (r *Runner) SetLogInterval(interval int) {
	r.logInterval = interval
}

// Run 执行maxSteps个时间步
// 第二次调用返回ErrAlreadyRun；某个时间步提交失败时立即终止，
// 历史停留在最后一次成功提交的状态
func (r *Runner) Run() error {
	if r.state != stateUninitialized {
		return ErrAlreadyRun
	}
	r.state = stateRunning

	cfg := r.street.Config()
	log.Infof("simulation start: %d lanes x %d cells, %d cars, vMax %d, %d steps",
		cfg.Lanes, cfg.Length, cfg.CarCount, cfg.VMax, r.maxSteps)

	for i := 0; i < r.maxSteps; i++ {
		if i == 0 {
			r.history = append(r.history, r.street.State().Clone())
			continue
		}

		next := r.pipeline.Apply(r.street.State().Clone())
		if err := r.street.Replace(next); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		r.history = append(r.history, next.Clone())

		if r.logInterval > 0 && i%r.logInterval == 0 {
			log.Debugf("step %d/%d committed", i, r.maxSteps)
		}
	}

	r.state = stateCompleted
	log.Infof("simulation completed after %d steps", r.maxSteps)
	return nil
}

// Street 返回运行器持有的道路
func (r *Runner) Street() *element.Street {
	return r.street
}

// Pipeline 返回规则流水线
func (r *Runner) Pipeline() *Pipeline {
	return r.pipeline
}

// MaxSteps 返回配置的时间步数
func (r *Runner) MaxSteps() int {
	return r.maxSteps
}

// History 返回历史快照序列
// 返回的是内部切片，调用方不得修改其中的矩阵
func (r *Runner) History() []element.Grid {
	return r.history
}
