package currency

import (
	"fmt"
	"sync"

	"budgetwise/internal/localstate"
	"budgetwise/internal/logger"
)

// StateKey is the local state key the preference is persisted under.
const StateKey = "budgetwise.currency"

// Selection is the active display currency.
type Selection struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// Default is the selection used until the user picks another.
var Default = Selection{Code: "USD", Symbol: "$"}

// Preference owns the user's display currency. Listeners registered with
// Subscribe are called synchronously after every effective change.
type Preference struct {
	mu        sync.RWMutex
	current   Selection
	table     RateTable
	state     localstate.Store
	listeners map[int]func(Selection)
	nextID    int
}

// NewPreference loads the persisted selection from state, falling back to
// Default when nothing valid was saved.
func NewPreference(state localstate.Store, table RateTable) *Preference {
	p := &Preference{
		current:   Default,
		table:     table,
		state:     state,
		listeners: map[int]func(Selection){},
	}

	var saved Selection
	ok, err := state.Load(StateKey, &saved)
	switch {
	case err != nil:
		logger.Get().Warnw("ignoring unreadable currency preference", "error", err)
	case ok:
		if r, known := table.Lookup(saved.Code); known {
			p.current = Selection{Code: r.Code, Symbol: r.Symbol}
		} else {
			logger.Get().Warnw("ignoring unknown saved currency", "code", saved.Code)
		}
	}
	return p
}

// Current returns the active selection.
func (p *Preference) Current() Selection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Table returns the rate table the preference validates against.
func (p *Preference) Table() RateTable {
	return p.table
}

// Set switches the display currency, persists it and notifies listeners.
// Setting the active code again is a no-op.
func (p *Preference) Set(code string) error {
	r, ok := p.table.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	next := Selection{Code: r.Code, Symbol: r.Symbol}

	p.mu.Lock()
	if p.current == next {
		p.mu.Unlock()
		return nil
	}
	p.current = next
	listeners := make([]func(Selection), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	if err := p.state.Save(StateKey, next); err != nil {
		logger.Get().Errorw("failed to persist currency preference", "error", err, "code", next.Code)
	}
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a func that
// removes it.
func (p *Preference) Subscribe(fn func(Selection)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}
