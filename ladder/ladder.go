// Package ladder implements the Montgomery ladder scalar multiplication
// spec.md section 4.5 specifies for Montgomery-form curves (Curve25519),
// built on mxz's combined double-and-add step and the conditional-swap
// primitive mpi.Int.CondSwap provides. The overall structure — clamp the
// scalar, walk its bits top-to-bottom, conditionally swap before and after
// each combined step — follows RFC 7748 section 5's pseudocode; the
// retrieval pack's one worked x/z example
// (other_examples/golang-crypto__curve25519.go) instead branches on the bit
// directly, which this package deliberately does not do.
package ladder

import (
	"github.com/tempesta-tls/ecgroup/arena"
	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/mpi"
	"github.com/tempesta-tls/ecgroup/mxz"
)

// Mul computes scalar*point on grp's Montgomery curve, scalar already
// clamped by the caller (group.Keygen does the RFC 7748 clamp; Mul itself
// only walks the bits it's given, from grp.Bits down to 0). point is the
// affine x-coordinate of the input; the result is returned as an affine
// x-coordinate too. Each step's temporaries are drawn from a local arena and
// released immediately after, so the bit-walking loop does no net heap
// allocation beyond the two points it carries forward (spec section 5).
func Mul(f *field.Arith, grp *curve.Group, scalar *mpi.Int, point *mpi.Int) (*mpi.Int, error) {
	x1 := point.Clone()

	p2 := &mxz.Point{Grp: grp, X: mpi.FromUint64(1), Z: mpi.NewInt(grp.ByteLen())}
	p3 := mxz.FromX(grp, x1)

	var scratch arena.Arena
	swap := 0
	for i := grp.Bits; i >= 0; i-- {
		bit := int(scalar.Bit(i))
		s := bit ^ swap
		condSwapPoints(p2, p3, s)

		mark := scratch.Mark()
		var n2, n3 mxz.Point
		mxz.DoubleAddLadderStep(f, &n2, &n3, p2, p3, x1, &scratch)
		scratch.Release(mark)
		*p2, *p3 = n2, n3

		swap = bit
	}
	condSwapPoints(p2, p3, swap)

	if err := mxz.Normalise(f, p2, &scratch); err != nil {
		return nil, err
	}
	return p2.X, nil
}

// condSwapPoints swaps p2 and p3's coordinates in constant time with
// respect to cond (0 or 1), the x/z analogue of RFC 7748's cswap.
func condSwapPoints(p2, p3 *mxz.Point, cond int) {
	p2.X.CondSwap(p3.X, cond)
	p2.Z.CondSwap(p3.Z, cond)
}
