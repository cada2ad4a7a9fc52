package botany

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	name := Canonicalize("Cassia abbreviata Oliv.")
	require.True(t, name.Parsed)
	assert.Equal(t, "Cassia abbreviata", name.Canonical)
	assert.Len(t, name.ID, 36)

	again := Canonicalize("  Cassia   abbreviata  ")
	assert.Equal(t, name.ID, again.ID, "canonical id must not depend on authorship or spacing")
}

func TestCanonicalize_Empty(t *testing.T) {
	assert.Equal(t, Name{}, Canonicalize("   "))
}

func TestCanonicalize_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Moringa oleifera", Canonicalize("Moringa oleifera Lam.").Canonical)
		}()
	}
	wg.Wait()
}
