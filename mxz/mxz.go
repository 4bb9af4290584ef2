// Package mxz implements Montgomery-curve point arithmetic in x/z
// projective coordinates (x = X/Z, y never represented), the representation
// Curve25519's RFC 7748 ladder runs in. The teacher has no Montgomery-curve
// code at all — its sm2/btc packages only ever do short-Weierstrass Jacobian
// arithmetic — so this package is grounded instead on the combined
// double-and-add differential-addition step described in RFC 7748 section 5
// and on the non-constant-time add/double pair in
// other_examples/golang-crypto__curve25519.go (diffadd-1987-m, dbl-1987-m),
// folded into the single constant-time step the ladder package needs so no
// branch on a secret bit ever happens.
package mxz

import (
	"errors"
	"io"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// Point is one Montgomery-curve point in x/z projective form.
type Point struct {
	Grp  *curve.Group
	X, Z *mpi.Int
}

// errZero is returned by Normalise when Z is zero, the point at infinity
// having no affine x-coordinate.
var errZero = errors.New("mxz: cannot normalise a point at infinity")

// FromX builds the projective representative (x, 1) of an affine x-only
// point, the form the ladder's base point and output are handed around in.
func FromX(grp *curve.Group, x *mpi.Int) *Point {
	return &Point{Grp: grp, X: x.Clone(), Z: mpi.FromUint64(1)}
}

// Normalise sets p.X = X/Z mod P and p.Z = 1 using a single modular inverse.
// s supplies zinv's backing storage from an arena when the caller has one in
// scope (spec section 5); pass nil to allocate it directly.
func Normalise(f *field.Arith, p *Point, s mpi.Scratch) error {
	if p.Z.IsZero() {
		return errZero
	}
	grp := p.Grp
	zinv := mpi.ScratchInt(s, grp.ByteLen())
	zinv.InvMod(p.Z, grp.P)
	f.Mul(p.X, p.X, zinv)
	p.Z.SetInt64(1)
	return nil
}

// Randomise re-randomises p's projective representative (X, Z) ->
// (lambda*X, lambda*Z) for a fresh random nonzero lambda, the x/z analogue of
// jacobian.Randomise's Coron blinding (spec.md section 4.3). s supplies
// lambda's backing storage from an arena when the caller has one in scope,
// or pass nil otherwise.
func Randomise(f *field.Arith, p *Point, rnd io.Reader, s mpi.Scratch) error {
	grp := p.Grp
	n := grp.ByteLen()
	var lambda *mpi.Int
	var err error
	for try := 0; try < 10; try++ {
		lambda = mpi.ScratchInt(s, n)
		if err = lambda.FillRandom(rnd, n); err != nil {
			return err
		}
		lambda.Mod(lambda, grp.P)
		if !lambda.IsZero() {
			break
		}
	}
	if lambda.IsZero() {
		return errors.New("mxz: Randomise could not draw a nonzero blinding factor")
	}
	f.Mul(p.X, p.X, lambda)
	f.Mul(p.Z, p.Z, lambda)
	return nil
}

// a24 is (A-2)/4 for Curve25519's A == 486662, the constant the combined
// ladder step's doubling half needs (RFC 7748 section 5). It is derived from
// grp.A rather than hard-coded, so a future Montgomery curve registered with
// a different A still gets the right constant. s supplies its intermediates'
// backing storage; the returned value itself is always a fresh allocation,
// since the caller multiplies by it after a24 returns.
func a24(f *field.Arith, grp *curve.Group, s mpi.Scratch) *mpi.Int {
	a := grp.A.Value()
	n := grp.ByteLen()
	am2 := mpi.ScratchInt(s, n)
	am2.SubSigned(a, mpi.FromUint64(2))
	f.Reduce(am2)
	inv4 := mpi.ScratchInt(s, n)
	inv4.InvMod(mpi.FromUint64(4), grp.P)
	out := mpi.NewInt(n)
	f.Mul(out, am2, inv4)
	return out
}

// DoubleAddLadderStep performs one constant-time step of the Montgomery
// ladder: given the current pair (p2, p3) with p3 - p2 == the base point x1,
// it sets dst2 = 2*p2 and dst3 = p2 + p3, using the combined 5M+4S formula
// RFC 7748 section 5 gives (mirroring ecp_double_add_mxz in the wider
// original): no branch in this function depends on any ladder bit, so the
// caller (ladder.Mul) is responsible for feeding it the already-swapped
// operands for that bit and swapping the outputs back. s supplies every
// intermediate that never outlives this call; pass an arena via s on the
// ladder's hot path (spec section 5: "no heap allocation on the hot path")
// or nil otherwise. dst2/dst3's own coordinates are always freshly
// allocated, since they outlive this call.
func DoubleAddLadderStep(f *field.Arith, dst2, dst3 *Point, p2, p3 *Point, x1 *mpi.Int, s mpi.Scratch) {
	grp := p2.Grp
	n := grp.ByteLen()

	a := mpi.ScratchInt(s, n)
	a.Add(p2.X, p2.Z)
	f.Reduce(a)
	aa := mpi.ScratchInt(s, n)
	f.Sqr(aa, a)

	b := mpi.ScratchInt(s, n)
	b.SubSigned(p2.X, p2.Z)
	f.Reduce(b)
	bb := mpi.ScratchInt(s, n)
	f.Sqr(bb, b)

	e := mpi.ScratchInt(s, n)
	e.SubSigned(aa, bb)
	f.Reduce(e)

	c := mpi.ScratchInt(s, n)
	c.Add(p3.X, p3.Z)
	f.Reduce(c)
	d := mpi.ScratchInt(s, n)
	d.SubSigned(p3.X, p3.Z)
	f.Reduce(d)

	da := mpi.ScratchInt(s, n)
	f.Mul(da, d, a)
	cb := mpi.ScratchInt(s, n)
	f.Mul(cb, c, b)

	sum := mpi.ScratchInt(s, n)
	sum.Add(da, cb)
	f.Reduce(sum)
	x5 := mpi.NewInt(n)
	f.Sqr(x5, sum)

	diff := mpi.ScratchInt(s, n)
	diff.SubSigned(da, cb)
	f.Reduce(diff)
	z5pre := mpi.ScratchInt(s, n)
	f.Sqr(z5pre, diff)
	z5 := mpi.NewInt(n)
	f.Mul(z5, x1, z5pre)

	x4 := mpi.NewInt(n)
	f.Mul(x4, aa, bb)

	a24v := a24(f, grp, s)
	ae := mpi.ScratchInt(s, n)
	f.Mul(ae, a24v, e)
	inner := mpi.ScratchInt(s, n)
	inner.Add(aa, ae)
	f.Reduce(inner)
	z4 := mpi.NewInt(n)
	f.Mul(z4, e, inner)

	dst2.Grp, dst2.X, dst2.Z = grp, x4, z4
	dst3.Grp, dst3.X, dst3.Z = grp, x5, z5
}
