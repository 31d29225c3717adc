// Package floor derives the live status of every table in the sala from the
// stored table state, today's reservation book and the comanda ledger.
package floor

import "time"

type Status string

const (
	StatusFree     Status = "FREE"
	StatusOccupied Status = "OCCUPIED"
	StatusReserved Status = "RESERVED"

	// legacyReserved is an old stored value some rows still carry. It is
	// never trusted: reservation state is recomputed on every read.
	legacyReserved Status = "RESERVED"
)

// ResolutionWindow is how early a paid comanda may land relative to a
// reservation time and still count as that reservation being honoured.
const ResolutionWindow = time.Hour

type Table struct {
	ID     int64
	Number int32
	Status Status
	Seats  int32
}

type Reservation struct {
	ID int64
	// TableID is nil for floating reservations with no assigned seat; those
	// never affect a table's displayed status.
	TableID *int64
	When    time.Time
}

// PaidAfterFunc reports whether a paid comanda exists for the table with a
// timestamp at or after the threshold.
type PaidAfterFunc func(tableID int64, threshold time.Time) (bool, error)

// Resolve maps every table to its effective display status. The result is
// display-only: nothing is written back, and the derivation is repeated on
// every read.
//
// Rules, in order:
//   - a stored OCCUPIED table is occupied, reservations notwithstanding
//   - legacy stored RESERVED normalizes to free before derivation
//   - a free table is reserved if any of today's reservations assigned to
//     it is unresolved: no paid comanda at or after (reservation time −
//     ResolutionWindow)
func Resolve(tables []Table, reservations []Reservation, paidAfter PaidAfterFunc) (map[int64]Status, error) {
	byTable := make(map[int64][]Reservation)
	for _, res := range reservations {
		if res.TableID == nil {
			continue
		}
		byTable[*res.TableID] = append(byTable[*res.TableID], res)
	}

	statuses := make(map[int64]Status, len(tables))
	for _, table := range tables {
		status := table.Status
		if status == legacyReserved {
			status = StatusFree
		}
		if status == StatusOccupied {
			statuses[table.ID] = StatusOccupied
			continue
		}

		statuses[table.ID] = StatusFree
		for _, res := range byTable[table.ID] {
			resolved, err := paidAfter(table.ID, res.When.Add(-ResolutionWindow))
			if err != nil {
				return nil, err
			}
			if !resolved {
				statuses[table.ID] = StatusReserved
				break
			}
		}
	}
	return statuses, nil
}
