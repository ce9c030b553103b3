package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"streetCA/utils"
)

func TestEngineDeterministic(t *testing.T) {
	a := utils.NewEngine(7)
	b := utils.NewEngine(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}

	// test: 不同种子产生不同序列
	c := utils.NewEngine(8)
	same := true
	d := utils.NewEngine(7)
	for i := 0; i < 100; i++ {
		if c.Intn(1000) != d.Intn(1000) {
			same = false
		}
	}
	assert.False(t, same)
}

func TestEnginePTrue(t *testing.T) {
	e := utils.NewEngine(1)
	for i := 0; i < 100; i++ {
		assert.False(t, e.PTrue(0))
		assert.True(t, e.PTrue(1))
	}
}

func TestEnginePerm(t *testing.T) {
	e := utils.NewEngine(5)
	perm := e.Perm(20)
	seen := make(map[int]bool, 20)
	for _, p := range perm {
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 20)
		assert.False(t, seen[p])
		seen[p] = true
	}
	assert.Len(t, seen, 20)
}
