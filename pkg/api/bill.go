package api

// Bill amounts are integers in the smallest currency unit.
type Bill struct {
	Total     int64       `json:"total"`
	SplitMode string      `json:"splitMode"`
	Items     []*BillItem `json:"items"`
}

type BillItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Cost             int64  `json:"cost"`
	AssigneeMemberID string `json:"assigneeMemberId"`
	CreatedBy        string `json:"createdBy,omitempty"`
}

// SplitRow is one member's share.
type SplitRow struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Items    int64  `json:"items"`
	Share    int64  `json:"share"`
	Amount   int64  `json:"amount"`
}

type SetBillRequest struct {
	Code  string `json:"code"`
	Total int64  `json:"total"`
	// SplitMode is EVEN, ITEM, or empty to keep the current mode.
	SplitMode string `json:"splitMode,omitempty"`
}

type SetBillResponse struct {
	Bill *Bill `json:"bill"`
}

type AddBillItemRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Cost             int64  `json:"cost"`
	AssigneeMemberID string `json:"assigneeMemberId"`
}

type AddBillItemResponse struct {
	Item *BillItem `json:"item"`
	Bill *Bill     `json:"bill"`
}

type RemoveBillItemRequest struct {
	Code   string `json:"code"`
	ItemID string `json:"itemId"`
}

type RemoveBillItemResponse struct {
	Bill *Bill `json:"bill"`
}

type GetFinalSplitRequest struct {
	Code string `json:"code"`
}

type GetFinalSplitResponse struct {
	Total     int64       `json:"total"`
	SplitMode string      `json:"splitMode"`
	Rows      []*SplitRow `json:"rows"`
}

// PreviewSplitRequest computes a split without an event.
type PreviewSplitRequest struct {
	Members   []*Member   `json:"members"`
	Total     int64       `json:"total"`
	SplitMode string      `json:"splitMode"`
	Items     []*BillItem `json:"items"`
}

type PreviewSplitResponse struct {
	// Total is the sum of the row amounts.
	Total int64       `json:"total"`
	Rows  []*SplitRow `json:"rows"`
}
