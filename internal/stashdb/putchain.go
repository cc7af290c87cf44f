package stashdb

import (
	"fmt"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

type OperationType string

const (
	InsertOperation OperationType = "insert"
	UpdateOperation OperationType = "update"
)

// Mutation a write travelling through the put chain
type Mutation struct {
	Operation OperationType
	Key       string
	Record    Record
}

// PutHandler put PutMiddleware handle.
type PutHandler interface {
	Put(*Mutation) error
}

// The PutHandlerFunc type is an adapter to allow the use of
// ordinary functions as handlers. If f is a function
// with the appropriate signature, PutHandlerFunc(f) is a
// Handler that calls f.
type PutHandlerFunc func(*Mutation) error

// Put calls f(m).
func (f PutHandlerFunc) Put(m *Mutation) error {
	return f(m)
}

// MiddlewarePutFunc is a function which receives an PutHandler and returns another PutHandler
type MiddlewarePutFunc func(PutHandler) PutHandler

// putMiddlewarer interface is anything which implements a MiddlewarePutFunc named Middleware
type putMiddlewarer interface {
	PutMiddleware(PutHandler) PutHandler
}

// PutMiddleware allows MiddlewarePutFunc to implement the putMiddlewarer interface
func (mw MiddlewarePutFunc) PutMiddleware(h PutHandler) PutHandler {
	return mw(h)
}

// PutChain use pattern chain of responsibility to check a mutation before it is written
type PutChain struct {
	putMiddlewares []putMiddlewarer
}

// Attach appends a MiddlewarePutFunc to the put chain
func (p *PutChain) Attach(mwf ...MiddlewarePutFunc) *PutChain {
	for _, fn := range mwf {
		p.putMiddlewares = append(p.putMiddlewares, fn)
	}
	return p
}

// put runs m through every middleware, in attach order, and then through final
func (p *PutChain) put(m *Mutation, final PutHandler) error {
	h := final
	for i := len(p.putMiddlewares) - 1; i >= 0; i-- {
		h = p.putMiddlewares[i].PutMiddleware(h)
	}
	return h.Put(m)
}

// Referencer answers whether a primary key exists
type Referencer interface {
	Contains(key string) bool
}

// ReferenceCheck fails a mutation whose field at position field names a key
// target does not hold.
func ReferenceCheck(field int, target Referencer) MiddlewarePutFunc {
	return func(next PutHandler) PutHandler {
		return PutHandlerFunc(func(m *Mutation) error {
			if field >= len(m.Record) {
				return dberr.Validation("reference field %d missing", field)
			}
			if ref := m.Record[field]; !target.Contains(ref) {
				return fmt.Errorf("%s %q: references %q: %w", m.Operation, m.Key, ref, dberr.ErrUnknownReference)
			}
			return next.Put(m)
		})
	}
}
