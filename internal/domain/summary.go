package domain

import "time"

// SafeItem records a resource that needed no replenishment this cycle.
type SafeItem struct {
	Kind         StockKind
	Level        int
	MinSafeLevel int
}

// CycleSummary is the immutable outcome of one maintenance cycle. It is
// always produced, whether the cycle succeeded or aborted.
type CycleSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ItemsAdded []ReplenishAction
	ItemsSafe  []SafeItem
	Errors     []string
	OK         bool
}
