package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReal_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Real().Now().Location())
}

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	assert.Equal(t, start, fake.Now())

	fake.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), fake.Now())

	fake.Advance(-time.Hour)
	assert.Equal(t, start.Add(90*time.Second-time.Hour), fake.Now())

	local := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	fake.Set(local)
	assert.Equal(t, time.UTC, fake.Now().Location())
	assert.True(t, local.Equal(fake.Now()))
}
