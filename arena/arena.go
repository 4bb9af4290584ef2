// Package arena provides the scratch-memory discipline spec section 5
// requires of the group-arithmetic core: short-lived temporaries are bumped
// from a pool with a strictly nested, stack-like lifetime instead of being
// allocated individually on the hot path.
//
// No example repository in the retrieval pack ships a bump allocator for
// numeric scratch values, so this package reaches for the idiomatic stdlib
// tool the pack itself uses for scoped object reuse: sync.Pool (see e.g.
// cockroachdb-cockroach's pkg/storage/engine/mvcc.go).
package arena

import (
	"sync"

	"github.com/tempesta-tls/ecgroup/jacobian"
	"github.com/tempesta-tls/ecgroup/mpi"
)

var intPool = sync.Pool{
	New: func() any { return mpi.NewInt(0) },
}

var pointPool = sync.Pool{
	New: func() any { return &jacobian.Point{} },
}

// Arena is a caller-owned scratch region. The zero value is ready to use.
// An Arena must not be shared between goroutines (spec section 5: the
// scratch arena is thread-local, belonging to the caller's task).
type Arena struct {
	issued       []*mpi.Int
	issuedPoints []*jacobian.Point
}

// Mark records the current allocation frontier for both the Int and Point
// pools.
type Mark struct {
	ints, points int
}

// Mark returns a checkpoint that Release can later wind the arena back to.
func (a *Arena) Mark() Mark { return Mark{ints: len(a.issued), points: len(a.issuedPoints)} }

// Int returns a scratch Int able to hold nbyte bytes, reset to zero.
func (a *Arena) Int(nbyte int) *mpi.Int {
	x := intPool.Get().(*mpi.Int)
	x.SetInt64(0)
	a.issued = append(a.issued, x)
	_ = nbyte // capacity is advisory; big.Int grows on demand.
	return x
}

// Point returns a scratch Jacobian point, reset to the point at infinity.
// Its Grp field is left nil; callers set it (or overwrite the whole point
// via jacobian.FromAffine/Double/AddMixed) before use.
func (a *Arena) Point() *jacobian.Point {
	p := pointPool.Get().(*jacobian.Point)
	*p = jacobian.Point{}
	a.issuedPoints = append(a.issuedPoints, p)
	return p
}

// Release returns every Int and Point allocated since m back to their
// pools, winding the arena's frontier back to m. This is the Go analogue
// of the C core's ttls_mpi_pool_cleanup_ctx()/alloca scoped release: every
// exit path, including error returns, must call it via defer.
func (a *Arena) Release(m Mark) {
	for _, x := range a.issued[m.ints:] {
		intPool.Put(x)
	}
	a.issued = a.issued[:m.ints]

	for _, p := range a.issuedPoints[m.points:] {
		pointPool.Put(p)
	}
	a.issuedPoints = a.issuedPoints[:m.points]
}
