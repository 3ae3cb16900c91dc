package tone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHex(t *testing.T) {
	assert.Equal(t, "C6EFCE", Success.Hex())
	assert.Equal(t, "FFC7CE", Danger.Hex())
	assert.Equal(t, "F2F2F2", Tone("unknown").Hex())
}
