package session

import (
	"sort"

	"github.com/moviebook/seatsync/internal/model"
)

// Reconcile shrinks a local seat selection to stay consistent with an
// authoritative seat table: any selected seat the table reports as booked
// (another viewer won the race), or that the table no longer contains, is
// dropped.  The result is always a subset of the input — reconciliation
// never resurrects a seat into the selection.
//
// The input map is not mutated; callers swap in the returned map.
func Reconcile(selection map[uint64]struct{}, table map[uint64]model.Seat) (kept map[uint64]struct{}, dropped []uint64) {
	kept = make(map[uint64]struct{}, len(selection))
	for id := range selection {
		seat, ok := table[id]
		if ok && !seat.Booked {
			kept[id] = struct{}{}
		} else {
			dropped = append(dropped, id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })
	return kept, dropped
}
