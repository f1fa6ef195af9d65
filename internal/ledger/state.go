package ledger

import (
	"encoding/json"
	"fmt"

	"gigfin/internal/core"
)

// State is the persisted unit: both ledgers plus the next id.
type State struct {
	Business []core.Entry `json:"business"`
	Personal []core.Entry `json:"personal"`
	NextID   int64        `json:"nextId"`
}

func emptyState() State {
	return State{Business: []core.Entry{}, Personal: []core.Entry{}, NextID: 1}
}

func (s *State) ledger(name core.LedgerName) *[]core.Entry {
	if name == core.Personal {
		return &s.Personal
	}
	return &s.Business
}

func (s State) clone() State {
	return State{
		Business: append([]core.Entry{}, s.Business...),
		Personal: append([]core.Entry{}, s.Personal...),
		NextID:   s.NextID,
	}
}

// Equal compares states entry by entry.
func (s State) Equal(o State) bool {
	if s.NextID != o.NextID || len(s.Business) != len(o.Business) || len(s.Personal) != len(o.Personal) {
		return false
	}
	for i := range s.Business {
		if !s.Business[i].Equal(o.Business[i]) {
			return false
		}
	}
	for i := range s.Personal {
		if !s.Personal[i].Equal(o.Personal[i]) {
			return false
		}
	}
	return true
}

// decodeState parses a persisted blob. Absent fields default; entries that
// break the model (bad type, negative amount, duplicate id) make the whole
// blob unusable.
func decodeState(raw []byte) (State, error) {
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, err
	}
	if st.Business == nil {
		st.Business = []core.Entry{}
	}
	if st.Personal == nil {
		st.Personal = []core.Entry{}
	}

	seen := map[int64]core.LedgerName{}
	var maxID int64
	for _, name := range core.Ledgers() {
		for _, e := range *st.ledger(name) {
			if !e.Type.IsValid() {
				return State{}, fmt.Errorf("entry %d: %w: %q", e.ID, core.ErrInvalidType, e.Type)
			}
			if e.Amount.IsNegative() {
				return State{}, fmt.Errorf("entry %d: %w", e.ID, core.ErrInvalidAmount)
			}
			if other, dup := seen[e.ID]; dup {
				return State{}, fmt.Errorf("entry %d appears in %s and %s", e.ID, other, name)
			}
			seen[e.ID] = name
			if e.ID > maxID {
				maxID = e.ID
			}
		}
	}

	// The counter never goes backwards, even if nextId was lost.
	if st.NextID <= maxID {
		st.NextID = maxID + 1
	}
	if st.NextID < 1 {
		st.NextID = 1
	}
	return st, nil
}
