package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDimRejectsMismatch(t *testing.T) {
	m := &Memory{dim: 4}
	assert.NoError(t, m.checkDim([]float32{1, 2, 3, 4}))
	assert.Error(t, m.checkDim([]float32{1, 2, 3}))
}

func TestCheckDimUnboundedWhenZero(t *testing.T) {
	m := &Memory{dim: 0}
	assert.NoError(t, m.checkDim([]float32{1}))
	assert.NoError(t, m.checkDim([]float32{1, 2, 3, 4, 5}))
}
