package search

// SearchMonitor provides hooks to observe a query as it is answered.
// Implement this interface to trace candidate scoring while debugging.
type SearchMonitor interface {
	Start(query string)
	AfterNormalization(normalized string, keywords []string)
	EmbeddingDegraded(err error)
	AfterScoring(candidates []Candidate)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterNormalization(_ string, _ []string) {}
func (n *noopMonitor) EmbeddingDegraded(_ error)               {}
func (n *noopMonitor) AfterScoring(_ []Candidate)              {}
func (n *noopMonitor) Finish(_ *Response)                      {}
