// Package jacobian implements short-Weierstrass point arithmetic in Jacobian
// projective coordinates (x = X/Z^2, y = Y/Z^3), the representation
// sm2/sm2p.go and btc/utilsP256.go both operate in internally, generalized
// here from those two packages' hard-coded single-curve formulas to any
// registered curve.Group and widened with the side-channel countermeasures
// spec.md section 4.2 asks for: an A=-3 fast doubling path, a constant-time
// conditional negation (SafeInvert), and Coron's projective randomisation.
package jacobian

import (
	"crypto/subtle"
	"errors"
	"io"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// ZCoord tags a Point's Z state explicitly, replacing the "empty MPI" overload
// the C source uses for "Z absent means Z == 1" (spec.md section 9, Design
// Notes, "Empty-coordinate sentinel").
type ZCoord int

const (
	// ZZero marks the point at infinity; X, Y carry no meaning.
	ZZero ZCoord = iota
	// ZOne marks a normalised affine point (Z == 1).
	ZOne
	// ZValue marks a general projective point, Z any nonzero residue.
	ZValue
)

// Point is one short-Weierstrass point in Jacobian coordinates.
type Point struct {
	Grp  *curve.Group
	X, Y *mpi.Int
	Z    *mpi.Int
	Zc   ZCoord
}

// errNotAffine is returned by AddMixed when its fixed operand isn't
// normalised, mirroring btc/utilsP256.go's package-level sentinel-error idiom
// (errTooLarge) rather than an ad hoc fmt.Errorf at the call site.
var errNotAffine = errors.New("jacobian: AddMixed operand is not affine")

// Infinity returns the neutral element of grp.
func Infinity(grp *curve.Group) *Point {
	n := grp.ByteLen()
	return &Point{
		Grp: grp,
		X:   mpi.NewInt(n),
		Y:   mpi.NewInt(n),
		Z:   mpi.NewInt(n),
		Zc:  ZZero,
	}
}

// FromAffine builds a normalised point from affine coordinates.
func FromAffine(grp *curve.Group, x, y *mpi.Int) *Point {
	return &Point{Grp: grp, X: x.Clone(), Y: y.Clone(), Z: mpi.FromUint64(1), Zc: ZOne}
}

// IsInfinity reports whether p is the neutral element.
func (p *Point) IsInfinity() bool { return p.Zc == ZZero || p.Z.IsZero() }

// Clone returns an independent deep copy of p.
func (p *Point) Clone() *Point {
	return &Point{Grp: p.Grp, X: p.X.Clone(), Y: p.Y.Clone(), Z: p.Z.Clone(), Zc: p.Zc}
}

// Normalise converts p to affine form in place (Z == 1), using a single
// modular inversion. It is a no-op on the point at infinity. s supplies
// zinv/zinv2/zinv3's backing storage from an arena when the caller has one
// in scope (spec section 5); pass nil to allocate them directly.
func Normalise(f *field.Arith, p *Point, s mpi.Scratch) {
	if p.IsInfinity() {
		return
	}
	if p.Zc == ZOne {
		return
	}
	grp := p.Grp
	n := grp.ByteLen()
	zinv := mpi.ScratchInt(s, n)
	zinv.InvMod(p.Z, grp.P)

	zinv2 := mpi.ScratchInt(s, n)
	f.Sqr(zinv2, zinv)
	f.Mul(p.X, p.X, zinv2)

	zinv3 := mpi.ScratchInt(s, n)
	f.Mul(zinv3, zinv2, zinv)
	f.Mul(p.Y, p.Y, zinv3)

	p.Z.SetInt64(1)
	p.Zc = ZOne
}

// NormaliseMany converts every non-infinity point in pts to affine form using
// a single modular inversion shared across all of them (Montgomery's trick),
// the batch variant of Normalise spec.md section 4.2 calls for when a comb
// table's whole row needs converting at once.
func NormaliseMany(f *field.Arith, pts []*Point, s mpi.Scratch) {
	if len(pts) == 0 {
		return
	}
	grp := pts[0].Grp
	n := grp.ByteLen()

	// c[i] = Z0*Z1*...*Zi, skipping points at infinity (treated as Z == 1
	// contributions so the running product stays invertible).
	c := make([]*mpi.Int, len(pts))
	acc := mpi.FromUint64(1)
	for i, p := range pts {
		if p.IsInfinity() {
			c[i] = acc.Clone()
			continue
		}
		next := mpi.ScratchInt(s, n)
		f.Mul(next, acc, p.Z)
		acc = next
		c[i] = acc.Clone()
	}

	total := mpi.ScratchInt(s, n)
	total.InvMod(acc, grp.P)

	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		if p.IsInfinity() {
			continue
		}
		var zinv *mpi.Int
		if i == 0 {
			zinv = total.Clone()
		} else {
			zinv = mpi.ScratchInt(s, n)
			f.Mul(zinv, total, c[i-1])
		}
		if i > 0 {
			next := mpi.ScratchInt(s, n)
			f.Mul(next, total, p.Z)
			total = next
		}

		zinv2 := mpi.ScratchInt(s, n)
		f.Sqr(zinv2, zinv)
		f.Mul(p.X, p.X, zinv2)
		zinv3 := mpi.ScratchInt(s, n)
		f.Mul(zinv3, zinv2, zinv)
		f.Mul(p.Y, p.Y, zinv3)
		p.Z.SetInt64(1)
		p.Zc = ZOne
	}
}

// Double sets dst = 2*p, taking the dbl-1998-cmo-2 fast path for the NIST
// a == -3 curves this registry exclusively carries (3M+5S). s supplies the
// backing storage for every intermediate that never outlives this call
// (delta, gamma, beta, ...); pass an arena via s on the scalar-multiply hot
// path (spec section 5: "no heap allocation on the hot path") or nil
// otherwise. dst's own coordinates are always freshly allocated, since they
// outlive this call.
func Double(f *field.Arith, dst, p *Point, s mpi.Scratch) {
	if p.IsInfinity() {
		*dst = *Infinity(p.Grp)
		return
	}
	grp := p.Grp
	n := grp.ByteLen()

	if grp.A.IsMinusThree() {
		// dbl-1998-cmo-2, A == -3:
		// delta = Z1^2; gamma = Y1^2; beta = X1*gamma
		// alpha = 3*(X1-delta)*(X1+delta)
		// X3 = alpha^2 - 8*beta
		// Z3 = (Y1+Z1)^2 - gamma - delta
		// Y3 = alpha*(4*beta-X3) - 8*gamma^2
		delta := mpi.ScratchInt(s, n)
		f.Sqr(delta, p.Z)
		gamma := mpi.ScratchInt(s, n)
		f.Sqr(gamma, p.Y)
		beta := mpi.ScratchInt(s, n)
		f.Mul(beta, p.X, gamma)

		xmd := mpi.ScratchInt(s, n)
		xmd.SubSigned(p.X, delta)
		reduceInPlace(f, xmd)
		xpd := mpi.ScratchInt(s, n)
		xpd.Add(p.X, delta)
		reduceInPlace(f, xpd)
		alpha := mpi.ScratchInt(s, n)
		f.Mul(alpha, xmd, xpd)
		alpha3 := mpi.ScratchInt(s, n)
		alpha3.Add(alpha, alpha)
		alpha3.Add(alpha3, alpha)
		reduceInPlace(f, alpha3)

		x3 := mpi.NewInt(n)
		f.Sqr(x3, alpha3)
		beta8 := mpi.ScratchInt(s, n).Set(beta).ShiftL(3)
		x3.SubSigned(x3, beta8)
		reduceInPlace(f, x3)

		ypz := mpi.ScratchInt(s, n)
		ypz.Add(p.Y, p.Z)
		reduceInPlace(f, ypz)
		z3 := mpi.NewInt(n)
		f.Sqr(z3, ypz)
		z3.SubSigned(z3, gamma)
		z3.SubSigned(z3, delta)
		reduceInPlace(f, z3)

		beta4 := mpi.ScratchInt(s, n).Set(beta).ShiftL(2)
		y3t := mpi.ScratchInt(s, n)
		y3t.SubSigned(beta4, x3)
		reduceInPlace(f, y3t)
		y3 := mpi.NewInt(n)
		f.Mul(y3, alpha3, y3t)
		gamma2 := mpi.ScratchInt(s, n)
		f.Sqr(gamma2, gamma)
		gamma8 := mpi.ScratchInt(s, n).Set(gamma2).ShiftL(3)
		y3.SubSigned(y3, gamma8)
		reduceInPlace(f, y3)

		dst.Grp, dst.X, dst.Y, dst.Z, dst.Zc = grp, x3, y3, z3, ZValue
		return
	}

	// Every short-Weierstrass curve this registry carries has A == -3
	// (spec.md section 3's Group data model only ever represents A as the
	// "-3" sentinel; there is no general-value case for Weierstrass curves
	// to fall back to, matching ecp.c's own ecp_double_jac, which only
	// special-cases A in {0, -3} and never a free-form coefficient). A
	// Weierstrass curve registered with anything else is a registry bug,
	// not a runtime condition to branch on silently.
	panic("jacobian: Double called on a non-(-3) short-Weierstrass curve")
}

// AddMixed sets dst = p + q where q must already be normalised (affine,
// Z == 1). This is the mixed-addition formula (add-2007-bl specialised to
// Z2 == 1) spec.md section 4.2 asks for, generalized from sm2/sm2p.go's
// AddJacobian (which takes the general, non-mixed path and never exploits
// Z2 == 1 explicitly) into an explicit, checked mixed entry point.
// It returns errNotAffine if q isn't normalised, and handles both "p at
// infinity" and "p == q" (doubling) as the general addition formula
// degenerates there. s supplies the backing storage for every intermediate
// that never outlives this call (z1z1, u2, h, ...), the same convention
// Double uses; pass an arena via s on the hot path, or nil otherwise.
func AddMixed(f *field.Arith, dst, p, q *Point, s mpi.Scratch) error {
	if q.Zc != ZOne {
		return errNotAffine
	}
	if p.IsInfinity() {
		*dst = *q.Clone()
		return nil
	}
	grp := p.Grp
	n := grp.ByteLen()

	z1z1 := mpi.ScratchInt(s, n)
	f.Sqr(z1z1, p.Z)
	u2 := mpi.ScratchInt(s, n)
	f.Mul(u2, q.X, z1z1)

	h := mpi.ScratchInt(s, n)
	h.SubSigned(u2, p.X)
	reduceInPlace(f, h)

	s2 := mpi.ScratchInt(s, n)
	f.Mul(s2, q.Y, z1z1)
	f.Mul(s2, s2, p.Z)
	r := mpi.ScratchInt(s, n)
	r.SubSigned(s2, p.Y)
	reduceInPlace(f, r)

	if h.IsZero() {
		if r.IsZero() {
			Double(f, dst, p, s)
			return nil
		}
		*dst = *Infinity(grp)
		return nil
	}

	hh := mpi.ScratchInt(s, n)
	f.Sqr(hh, h)
	hhh := mpi.ScratchInt(s, n)
	f.Mul(hhh, hh, h)
	v := mpi.ScratchInt(s, n)
	f.Mul(v, p.X, hh)

	r2 := mpi.ScratchInt(s, n)
	f.Sqr(r2, r)
	x3 := mpi.NewInt(n)
	x3.SubSigned(r2, hhh)
	v2 := mpi.ScratchInt(s, n).Set(v).ShiftL(1)
	x3.SubSigned(x3, v2)
	reduceInPlace(f, x3)

	vmx := mpi.ScratchInt(s, n)
	vmx.SubSigned(v, x3)
	reduceInPlace(f, vmx)
	y3 := mpi.NewInt(n)
	f.Mul(y3, r, vmx)
	pyHHH := mpi.ScratchInt(s, n)
	f.Mul(pyHHH, p.Y, hhh)
	y3.SubSigned(y3, pyHHH)
	reduceInPlace(f, y3)

	z3 := mpi.NewInt(n)
	f.Mul(z3, p.Z, h)

	dst.Grp, dst.X, dst.Y, dst.Z, dst.Zc = grp, x3, y3, z3, ZValue
	return nil
}

// SafeInvert conditionally negates p's Y coordinate in constant time with
// respect to cond, used by comb.MulComb when the recoded digit is negative
// (spec.md section 4.2's safe_invert: "replace Q.Y with P - Q.Y iff
// inv = 1 and Q.Y != 0"). cond must be 0 or 1. The Y != 0 guard, which keeps
// the point at infinity's placeholder Y untouched, is derived from
// p.Y.Sign() via subtle.ConstantTimeEq rather than an if on the coordinate
// itself, so the function never branches on live point data.
func SafeInvert(f *field.Arith, p *Point, cond int, s mpi.Scratch) {
	negY := mpi.ScratchInt(s, p.Grp.ByteLen())
	negY.SubSigned(p.Grp.P, p.Y)
	reduceInPlace(f, negY)

	isZero := subtle.ConstantTimeEq(int32(p.Y.Sign()), 0)
	nonzero := 1 - isZero
	p.Y.CondAssign(negY, cond&nonzero)
}

// Randomise re-randomises p's Jacobian representative without changing the
// affine point it denotes: (X, Y, Z) -> (lambda^2*X, lambda^3*Y, lambda*Z)
// for a fresh random nonzero lambda, Coron's DPA countermeasure (spec.md
// section 4.2, "projective coordinate randomisation"). It retries up to 10
// times if the drawn lambda happens to be zero, mirroring
// ttls_ecp_randomize_jac's own retry bound, then gives up and returns an
// error; a read error from rnd is returned at once. s supplies lambda/l2/l3's backing storage from an
// arena when the caller has one in scope; pass nil otherwise.
func Randomise(f *field.Arith, p *Point, rnd io.Reader, s mpi.Scratch) error {
	if p.IsInfinity() {
		return nil
	}
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
		return errors.New("jacobian: Randomise could not draw a nonzero blinding factor")
	}

	l2 := mpi.ScratchInt(s, n)
	f.Sqr(l2, lambda)
	l3 := mpi.ScratchInt(s, n)
	f.Mul(l3, l2, lambda)

	f.Mul(p.X, p.X, l2)
	f.Mul(p.Y, p.Y, l3)
	f.Mul(p.Z, p.Z, lambda)
	p.Zc = ZValue
	return nil
}

// reduceInPlace brings a signed intermediate (produced by SubSigned/Add/
// ShiftL, never reduced on their own) back into [0, P), the same fixup
// field.Arith.Reduce performs after Mul/Sqr.
func reduceInPlace(f *field.Arith, n *mpi.Int) { f.Reduce(n) }
