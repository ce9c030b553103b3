package recorder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"streetCA/config"
	"streetCA/element"
	"streetCA/simulator"
)

// 持久化产物格式版本
const artifactVersion = 1

var (
	// ErrCorruptArtifact 产物无法解析
	ErrCorruptArtifact = errors.New("corrupt artifact")
	// ErrVersionMismatch 产物版本不支持，或历史形状与声明的配置矛盾
	ErrVersionMismatch = errors.New("artifact version mismatch")
)

// artifact 持久化产物的JSON封皮
// 历史按时间主序展平为每元胞一个int8字节，zstd压缩后内嵌
// 道路只保存配置不保存活动状态，恢复时由同一种子重新推导初始状态
type artifact struct {
	Version int                 `json:"version"`
	Street  config.StreetConfig `json:"street"`
	Rules   []config.RuleConfig `json:"rules"`
	Shape   [3]int              `json:"shape"`
	History []byte              `json:"history"`
}

// Serialize 将运行器打包为字节序列
func Serialize(r *simulator.Runner) ([]byte, error) {
	cfg := r.Street().Config()
	history := r.History()

	raw := make([]byte, 0, len(history)*cfg.Lanes*cfg.Length)
	for _, grid := range history {
		for _, lane := range grid {
			for _, v := range lane {
				raw = append(raw, byte(int8(v)))
			}
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(raw, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close zstd writer: %w", err)
	}

	return json.Marshal(artifact{
		Version: artifactVersion,
		Street:  cfg,
		Rules:   r.Pipeline().Descriptors(),
		Shape:   [3]int{len(history), cfg.Lanes, cfg.Length},
		History: compressed,
	})
}

// Deserialize 从字节序列重建运行器
// 道路由配置重建（初始状态由种子重新推导，本身不持久化），
// 规则由描述符经注册表重建，历史逐元胞原样恢复
// 返回的运行器处于已完成状态，maxSteps等于历史长度
func Deserialize(data []byte) (*simulator.Runner, error) {
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if art.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrVersionMismatch, art.Version)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(art.History, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	steps, lanes, length := art.Shape[0], art.Shape[1], art.Shape[2]
	if steps <= 0 {
		return nil, fmt.Errorf("%w: empty history", ErrCorruptArtifact)
	}
	if lanes != art.Street.Lanes || length != art.Street.Length {
		return nil, fmt.Errorf("%w: shape %dx%d contradicts street config %dx%d",
			ErrVersionMismatch, lanes, length, art.Street.Lanes, art.Street.Length)
	}
	if len(raw) != steps*lanes*length {
		return nil, fmt.Errorf("%w: payload holds %d cells, shape declares %d",
			ErrVersionMismatch, len(raw), steps*lanes*length)
	}

	history := make([]element.Grid, steps)
	pos := 0
	for t := range history {
		grid := element.NewEmptyGrid(lanes, length)
		for l := 0; l < lanes; l++ {
			for i := 0; i < length; i++ {
				v := int(int8(raw[pos]))
				pos++
				if v < element.Empty || v > art.Street.VMax {
					return nil, fmt.Errorf("%w: cell value %d outside [-1, %d]",
						ErrVersionMismatch, v, art.Street.VMax)
				}
				grid[l][i] = v
			}
		}
		history[t] = grid
	}

	street, err := element.NewStreet(art.Street)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	pipeline, err := simulator.NewPipeline(art.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	return simulator.RestoreRunner(street, pipeline, history), nil
}
