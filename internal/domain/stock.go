package domain

// StockKind identifies one of the five consumable categories tracked on the
// stock overview page.
type StockKind string

const (
	StockFood     StockKind = "food"
	StockGifts    StockKind = "gifts"
	StockFries    StockKind = "fries"
	StockDrinks   StockKind = "drinks"
	StockIceCream StockKind = "ice_cream"
)

// BoutiqueKinds lists the boutique resources in the column order they appear
// on the stock overview page.
var BoutiqueKinds = []StockKind{StockGifts, StockFries, StockDrinks, StockIceCream}

// StockEntry is one resource's state as read from the site. Both fields must
// be non-negative; a negative value is a caller contract violation.
type StockEntry struct {
	Kind             StockKind
	Level            int
	DailyConsumption int
}

// MinSafeLevel is the floor below which the resource must be replenished.
func (e StockEntry) MinSafeLevel() int {
	return e.DailyConsumption * 3
}

// TargetLevel is the level a replenishment tops the resource up to.
func (e StockEntry) TargetLevel() int {
	return e.DailyConsumption * 4
}

// ReplenishAction is a purchase to submit. Amount is always positive; an
// entry that needs nothing produces no action.
type ReplenishAction struct {
	Kind   StockKind
	Amount int
}

// Decide returns how many units to buy for the given entry: zero when the
// current level is at or above three days of consumption, otherwise enough
// to reach four days.
func Decide(entry StockEntry) (int, error) {
	if entry.Level < 0 || entry.DailyConsumption < 0 {
		return 0, &InvalidPolicyInputError{Entry: entry}
	}

	if entry.Level >= entry.MinSafeLevel() {
		return 0, nil
	}

	return entry.TargetLevel() - entry.Level, nil
}
