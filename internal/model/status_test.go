package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.Valid(), s)
	}

	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("Pending").Valid(), "status values are case sensitive")
}
