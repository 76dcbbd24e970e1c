package lin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulAndIdentity(t *testing.T) {
	m := Mat3{{1, 2, 3}, {4, 5, 6}, {7, 8, 10}}
	assert.Equal(t, m, Identity().Mul(m))
	assert.Equal(t, m, m.Mul(Identity()))

	n := Mat3{{0, 1, 0}, {1, 0, 0}, {0, 0, 1}} // swap rows
	got := n.Mul(m)
	assert.Equal(t, Mat3{{4, 5, 6}, {1, 2, 3}, {7, 8, 10}}, got)
}

func TestMulVec(t *testing.T) {
	m := Mat3{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}} // 90° rotation about z
	v := m.MulVec(Vec3{1, 0, 0})
	assert.True(t, v.ApproxEqual(Vec3{0, 1, 0}, 1e-12))
}

func TestInverse(t *testing.T) {
	t.Run("regular matrix", func(t *testing.T) {
		m := Mat3{{2, 0, 0}, {0, 4, 0}, {1, 0, 8}}
		inv, err := m.Inverse()
		require.NoError(t, err)
		assert.True(t, m.Mul(inv).ApproxEqual(Identity(), 1e-12))
		assert.True(t, inv.Mul(m).ApproxEqual(Identity(), 1e-12))
	})

	t.Run("singular matrix", func(t *testing.T) {
		m := Mat3{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}
		_, err := m.Inverse()
		assert.ErrorContains(t, err, "singular")
	})
}

func TestDet(t *testing.T) {
	assert.InDelta(t, 1.0, Identity().Det(), 1e-12)
	assert.InDelta(t, -1.0, Identity().Neg().Det(), 1e-12)
	assert.InDelta(t, 24.0, Mat3{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}}.Det(), 1e-12)
}

func TestWrap(t *testing.T) {
	eps := 1e-6
	assert.Equal(t, Vec3{0.5, 0, 0.25}, Vec3{-0.5, 1, 1.25}.Wrap(eps))
	// Values a hair below 1 snap to 0.
	got := Vec3{1 - 1e-9, 0, 0}.Wrap(eps)
	assert.Equal(t, Vec3{0, 0, 0}, got)
	// Negative values wrap into [0, 1).
	got = Vec3{-0.25, -1.75, 0}.Wrap(eps)
	assert.True(t, got.ApproxEqual(Vec3{0.75, 0.25, 0}, 1e-12))
}

func TestApproxEqual(t *testing.T) {
	m := Identity()
	n := m
	n[2][2] += 4e-3
	assert.True(t, m.ApproxEqual(n, 5e-3))
	assert.False(t, m.ApproxEqual(n, 1e-3))
}
