package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFileConfig_MatchesSpecDefaults(t *testing.T) {
	def := DefaultFileConfig()

	assert.False(t, def.Automock)
	assert.Equal(t, `__mocks__`, def.MocksPattern)
	assert.Equal(t, `(_test|\.test)\.native$`, def.TestRegex)
	assert.True(t, def.Cache)
}
