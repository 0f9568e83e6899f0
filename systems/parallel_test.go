package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_CoversEveryIndexOnce(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	for _, n := range []int{0, 1, 63, 64, 65, 1000, 1003} {
		hits := make([]int, n)
		pool.Run(n, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			assert.Equal(t, 1, h, "n=%d index %d", n, i)
		}
	}
}

func TestPool_RunIsABarrier(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()

	const n = 500
	a := make([]int, n)
	b := make([]int, n)
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			a[i] = i
		}
	})
	// Second pass reads values written by other workers in the first
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			b[i] = a[n-1-i]
		}
	})
	for i := range b {
		assert.Equal(t, n-1-i, b[i])
	}
}

func TestPool_NilAndClose(t *testing.T) {
	var nilPool *Pool
	called := 0
	nilPool.Run(100, func(start, end int) {
		assert.Equal(t, 0, start)
		assert.Equal(t, 100, end)
		called++
	})
	assert.Equal(t, 1, called)
	nilPool.Close()

	pool := NewPool(0)
	assert.Positive(t, pool.Workers())
	pool.Run(200, func(int, int) {})
	pool.Close()
	pool.Close()
}
