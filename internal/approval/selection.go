package approval

import (
	"sync"

	"fleetconsole/internal/utils"
)

// DriverOption is one pick in the driver dropdown. ID is zero when the
// option came from free text and still has to be resolved by name.
type DriverOption struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Selection maps route id to the chosen driver.
type Selection map[string]DriverOption

func (s Selection) clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SelectionBook holds the transient selections of every open approval
// dialog, keyed by request id. Nothing here is persisted.
type SelectionBook struct {
	mu   sync.Mutex
	open map[int64]Selection
}

func NewSelectionBook() *SelectionBook {
	return &SelectionBook{open: map[int64]Selection{}}
}

// Set records a pick for one route. A blank driver name removes the pick.
func (b *SelectionBook) Set(requestID int64, routeID string, opt DriverOption) Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel := b.open[requestID]
	if sel == nil {
		sel = Selection{}
		b.open[requestID] = sel
	}
	opt.Name = utils.NormalizeSpace(opt.Name)
	if opt.Name == "" {
		delete(sel, routeID)
	} else {
		sel[routeID] = opt
	}
	return sel.clone()
}

func (b *SelectionBook) Get(requestID int64) Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[requestID].clone()
}

// Close discards the selection, as when the dialog is dismissed.
func (b *SelectionBook) Close(requestID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, requestID)
}
