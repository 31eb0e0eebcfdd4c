package search

import "github.com/poiesic/gleaner/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []core.ID)
	AfterLexicalSearch(ids []core.ID)
	SemanticAndLexicalHit(chunk *core.Chunk)
	SemanticHit(chunk *core.Chunk)
	LexicalHit(chunk *core.Chunk)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ID)     {}
func (n *noopMonitor) AfterLexicalSearch(_ []core.ID)      {}
func (n *noopMonitor) SemanticAndLexicalHit(_ *core.Chunk) {}
func (n *noopMonitor) SemanticHit(_ *core.Chunk)           {}
func (n *noopMonitor) LexicalHit(_ *core.Chunk)            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}
