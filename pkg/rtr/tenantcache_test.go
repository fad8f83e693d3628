package rtr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantCacheFirstWriterWins(t *testing.T) {
	c := newTenantCache()
	assert.False(t, c.alreadyUploaded("cid-1", "kape.zip"))

	c.markUploaded("cid-1", "kape.zip")
	assert.True(t, c.alreadyUploaded("cid-1", "kape.zip"))
	assert.False(t, c.alreadyUploaded("cid-1", "uac.zip"))
	assert.False(t, c.alreadyUploaded("cid-2", "kape.zip"))
}

func TestTenantCacheEvict(t *testing.T) {
	c := newTenantCache()
	c.markUploaded("cid-1", "kape.zip")
	c.evict("cid-1", "kape.zip")
	assert.False(t, c.alreadyUploaded("cid-1", "kape.zip"))
}
