package calculator

import "github.com/mmynk/hangout/internal/models"

// Row is one member's share of the bill.
type Row struct {
	MemberID string
	Name     string

	// Items is the sum of item costs assigned to the member (ITEM mode only).
	Items int64

	// Share is the member's part of the evenly split amount: the whole
	// total in EVEN mode, the leftover after items in ITEM mode. It is
	// negative when items exceed the total.
	Share int64

	// Amount is what the member owes: Items + Share.
	Amount int64
}

// ComputeSplit divides the bill among members in join order. The amounts
// always sum to bill.Total exactly; the indivisible remainder goes to the
// first members, one unit each.
//
// In EVEN mode the total is split equally. In ITEM mode each member pays
// for their assigned items and the leftover (total minus item costs) is
// split equally, which may be a deduction when items exceed the total.
//
// Input is expected to be validated already, with amounts within
// planner.MaxAmount; an empty member list yields no rows.
func ComputeSplit(members []models.Member, bill models.Bill) []Row {
	n := max(1, len(members))

	if bill.SplitMode != models.SplitItem {
		shares := DistributeRemainder(bill.Total, n)
		rows := make([]Row, 0, len(members))
		for i, m := range members {
			rows = append(rows, Row{MemberID: m.ID, Name: m.Name, Share: shares[i], Amount: shares[i]})
		}
		return rows
	}

	// Items assigned to someone outside the member list are ignored so the
	// rows still add up to the total.
	base := make(map[string]int64, len(members))
	for _, m := range members {
		base[m.ID] = 0
	}
	var itemsSum int64
	for _, item := range bill.Items {
		if _, ok := base[item.AssigneeMemberID]; !ok {
			continue
		}
		base[item.AssigneeMemberID] += item.Cost
		itemsSum += item.Cost
	}

	shares := DistributeRemainder(bill.Total-itemsSum, n)
	rows := make([]Row, 0, len(members))
	for i, m := range members {
		items := base[m.ID]
		rows = append(rows, Row{
			MemberID: m.ID,
			Name:     m.Name,
			Items:    items,
			Share:    shares[i],
			Amount:   items + shares[i],
		})
	}
	return rows
}

// DistributeRemainder splits amount into n integer parts that sum to amount.
// Every part gets the floor quotient q and the first r parts get one more,
// where r = amount - q*n and 0 <= r < n. Negative amounts round toward
// negative infinity, so -20 over 3 is [-6, -7, -7].
func DistributeRemainder(amount int64, n int) []int64 {
	if n < 1 {
		n = 1
	}
	d := int64(n)
	q := amount / d
	if amount%d != 0 && amount < 0 {
		q--
	}
	r := amount - q*d

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = q
		if int64(i) < r {
			parts[i]++
		}
	}
	return parts
}

// Total sums the amounts of rows.
func Total(rows []Row) int64 {
	var sum int64
	for _, r := range rows {
		sum += r.Amount
	}
	return sum
}
