// Package offers models lender loan offers and produces mock aggregations
// of them. There is no real underwriting here: offers are drawn from fixed
// tables of terms, amounts, fees and rates.
package offers

import (
	"slices"
	"time"
)

type (
	Offer struct {
		Slug       string    `json:"offer_slug"`
		ServicerID int32     `json:"servicer_id"`
		MinAmount  int32     `json:"min_amount"`
		MaxAmount  int32     `json:"max_amount"`
		Term       int32     `json:"terms"`
		PercentFee float32   `json:"percent_fee"`
		APR        float32   `json:"apr"`
		Expires    time.Time `json:"expires"`
	}

	// ByServicer groups offers by the servicer that issued them.
	ByServicer map[int32][]Offer
)

// Count returns the total number of offers across all servicers.
func (b ByServicer) Count() int {
	n := 0
	for _, list := range b {
		n += len(list)
	}
	return n
}

// Servicers returns the servicer IDs in ascending order.
func (b ByServicer) Servicers() []int32 {
	ids := make([]int32, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Best returns the offer with the lowest APR, if any.
func (b ByServicer) Best() (best Offer, ok bool) {
	for _, id := range b.Servicers() {
		for _, o := range b[id] {
			if !ok || o.APR < best.APR {
				best, ok = o, true
			}
		}
	}
	return best, ok
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (b ByServicer) Clone() ByServicer {
	if b == nil {
		return nil
	}
	out := make(ByServicer, len(b))
	for id, list := range b {
		out[id] = slices.Clone(list)
	}
	return out
}
