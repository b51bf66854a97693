package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamKeys(t *testing.T) {
	key := StreamKey("u01", "ACCELEROMETER--org.md2k.phonesensor--PHONE")
	assert.Equal(t, "stream:u01:ACCELEROMETER--org.md2k.phonesensor--PHONE", key)
	assert.Equal(t, "stream:u01:*", UserStreamPattern("u01"))

	label, ok := StreamLabelFromKey("u01", key)
	assert.True(t, ok)
	assert.Equal(t, "ACCELEROMETER--org.md2k.phonesensor--PHONE", label)

	_, ok = StreamLabelFromKey("u02", key)
	assert.False(t, ok)
}
