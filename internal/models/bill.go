package models

// SplitMode selects how a bill is divided among members.
type SplitMode string

const (
	// SplitEven divides the total equally.
	SplitEven SplitMode = "EVEN"
	// SplitItem charges each member their assigned items and splits the
	// leftover (total minus item costs) equally.
	SplitItem SplitMode = "ITEM"
)

// Valid reports whether m is a known split mode.
func (m SplitMode) Valid() bool {
	return m == SplitEven || m == SplitItem
}

// Bill is the shared bill of an event.
type Bill struct {
	// Total is the amount to split, in the smallest currency unit. Never negative.
	Total int64

	// SplitMode defaults to SplitEven.
	SplitMode SplitMode

	// Items in creation order. Only used by SplitItem.
	Items []BillItem
}

// BillItem is one itemized cost assigned to a member.
type BillItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is what was bought (e.g., "Pizza").
	Name string

	// Cost is a positive amount in the smallest currency unit.
	Cost int64

	// AssigneeMemberID is the member who pays for this item. Must belong
	// to the same event.
	AssigneeMemberID string

	// CreatedBy is the member who added the item; together with the event
	// owner they are the only ones who may remove it.
	CreatedBy string
}
