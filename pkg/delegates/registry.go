// Package delegates exposes the delegate registry: addresses pre-authorized
// by Safe owners to propose transactions on their behalf. The registry is
// externally owned and read-only to this service.
package delegates

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Delegate is one registry entry scoped to a Safe on a chain.
type Delegate struct {
	Safe      common.Address `json:"safe"`
	Delegate  common.Address `json:"delegate"`
	Delegator common.Address `json:"delegator"`
	Label     string         `json:"label"`
}

// Page is the registry's paged response shape.
type Page struct {
	Count   int        `json:"count"`
	Results []Delegate `json:"results"`
}

// Contains reports whether address appears as a delegate in the page.
func (p Page) Contains(address common.Address) bool {
	for _, d := range p.Results {
		if d.Delegate == address {
			return true
		}
	}
	return false
}

// Registry looks up the delegates registered for a Safe.
type Registry interface {
	// GetDelegates returns all delegates scoped to (chainID, safe).
	GetDelegates(ctx context.Context, chainID int64, safe common.Address) (Page, error)
}
