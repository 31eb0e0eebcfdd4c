package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	assert.Equal(t, []string{"neural", "networks", "classification"},
		tokenizeAndFilter("The neural networks, for classification!"))
	assert.Equal(t, []string{"redes", "neurais"}, tokenizeAndFilter("As redes neurais"))
	assert.Empty(t, tokenizeAndFilter("the of and"))
}

func TestContainsAllQueryWords(t *testing.T) {
	doc := "Quantum computing (QC) promises speedups for optimization."

	assert.True(t, containsAllQueryWords(doc, "quantum optimization"))
	assert.True(t, containsAllQueryWords(doc, "the QC"))
	assert.False(t, containsAllQueryWords(doc, "quantum chemistry"))
	assert.False(t, containsAllQueryWords(doc, "the"), "stop words alone never match")
}
