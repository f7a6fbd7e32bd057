// Package ident is the order-id generator collaborator: engine order ids
// from an atomic counter plus opaque uuid client references for submitters
// that did not supply their own.
package ident

import (
	"sync/atomic"

	"github.com/google/uuid"

	"gungnir/internal/common"
)

type Source struct {
	next atomic.Uint64
}

func NewSource() *Source {
	return &Source{}
}

// NextOrderID returns a fresh engine order id. Ids are unique and strictly
// increasing for the life of the source, safe for concurrent use.
func (s *Source) NextOrderID() common.OrderID {
	return common.OrderID(s.next.Add(1))
}

// NewClientRef mints an opaque reference the core carries but never
// interprets.
func (s *Source) NewClientRef() string {
	return uuid.NewString()
}
