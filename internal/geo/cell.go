// Package geo maps locations to hierarchical hexagonal cells for proximity
// bucketing. Cell ids are H3 indexes carried as their canonical hex string
// form; raw driver indexes arrive at a finer resolution than the dispatch
// grid and are coarsened before ring expansion.
package geo

import (
	"errors"

	h3 "github.com/uber/h3-go/v4"
)

// DispatchResolution is the grid resolution candidate search buckets on.
// Raw driver pings are finer; pickup cells are stored at this resolution.
const DispatchResolution = 9

// ErrInvalidCell is returned for indexes that do not parse as H3 cells.
var ErrInvalidCell = errors.New("geo: invalid cell index")

// CellOf coarsens a raw cell index to its parent at targetRes. A cell
// already at or above targetRes is returned unchanged. Pure, no side
// effects.
func CellOf(rawIndex string, targetRes int) (string, error) {
	cell := h3.Cell(h3.IndexFromString(rawIndex))
	if !cell.IsValid() {
		return "", ErrInvalidCell
	}
	if cell.Resolution() <= targetRes {
		return cell.String(), nil
	}
	parent, err := cell.Parent(targetRes)
	if err != nil {
		return "", err
	}
	return parent.String(), nil
}

// Ring returns every cell within k grid steps of cellID, origin included
// (k=0 yields just the cell itself). Pure, no side effects.
func Ring(cellID string, k int) ([]string, error) {
	cell := h3.Cell(h3.IndexFromString(cellID))
	if !cell.IsValid() {
		return nil, ErrInvalidCell
	}
	disk, err := cell.GridDisk(k)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(disk))
	for _, c := range disk {
		out = append(out, c.String())
	}
	return out, nil
}

// Contains reports whether cellID is a member of ring.
func Contains(ring []string, cellID string) bool {
	for _, c := range ring {
		if c == cellID {
			return true
		}
	}
	return false
}
