// Observer interface for deriving signals (metrics, logs) from parsed entries.
// Observers see every accepted entry and never influence the summaries.
package oplog

// Observer receives each accepted entry during analysis.
type Observer interface {
	Observe(e Entry)
}
