// Package field implements spec.md's ModArith: curve-aware modular
// multiply/square/reduce, wrapping the mpi engine with the curve's
// fast_modp. At 256 bits it runs the FIPS 186-3 section D.2 P-256
// reduction spec.md section 4.1 specifies verbatim; other bit widths fall
// back to a generic Barrett reduction generalized from
// btc/utilsP256.go's CalcMu/BarrettDiv (the teacher's 256-bit-only
// Barrett helper, widened here from a fixed 4-word case to any bit size).
package field

import (
	"math/big"
	"sync"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// Arith performs modular arithmetic for one Group. With Trace left nil it
// has no mutable state of its own beyond a lazily-built Barrett mu, so a
// single Arith may be shared across goroutines once constructed, mirroring
// Group's own read-sharing guarantee (spec section 5). A non-nil Trace is
// appended to on every call and is not safe for concurrent use.
type Arith struct {
	Grp *curve.Group

	// Trace, when non-nil, records every ModArith call this Arith issues,
	// the counting mock spec.md's constant-time testable property calls
	// for. Left nil on the hot path, where it costs one nil check per call.
	Trace *OpTrace

	muOnce sync.Once
	mu     *big.Int
	words  int // 64-bit "limbs" used by the Barrett fallback
}

// OpTrace records, in call order, the name of every ModArith operation
// issued against an Arith carrying it, independent of the operands'
// values. Comparing two Ops() slices is how the constant-time property
// ("mul(k, P) takes the same call sequence for any secret k") gets tested
// without instrumenting every call site by hand.
type OpTrace struct {
	ops []string
}

func (t *OpTrace) record(op string) {
	if t == nil {
		return
	}
	t.ops = append(t.ops, op)
}

// Ops returns the recorded call sequence.
func (t *OpTrace) Ops() []string { return append([]string(nil), t.ops...) }

// New returns the modular-arithmetic helper for grp.
func New(grp *curve.Group) *Arith {
	return &Arith{Grp: grp}
}

// Mul sets x = a*b mod P, fully reduced into [0, P).
func (f *Arith) Mul(x, a, b *mpi.Int) {
	f.Trace.record("Mul")
	x.Mul(a, b)
	f.Reduce(x)
}

// Sqr sets x = a*a mod P, fully reduced into [0, P).
func (f *Arith) Sqr(x, a *mpi.Int) {
	f.Trace.record("Sqr")
	x.Sqr(a)
	f.Reduce(x)
}

// Reduce brings a value congruent to n mod P into [0, P). It tolerates an
// intermediate negative value (a SubSigned result, same as ecp_modp's own
// MOD_SUB/MOD_ADD macros) by first adding P until it is non-negative, then
// applies the curve's dedicated fast_modp when available and a generic
// Barrett reduction otherwise, and finishes with the same "at most a few
// add/sub P" cleanup ecp_modp performs (the P-256 path's signed sum may
// itself land below 0 or at/above P). On P-256 the input must fit in the
// sixteen 32-bit words fastModP256 reads.
func (f *Arith) Reduce(n *mpi.Int) {
	f.Trace.record("Reduce")
	p := f.Grp.P

	for n.Sign() < 0 {
		n.Add(n, p)
	}

	// Only NIST P-256 gets the dedicated FIPS 186-3 D.2 reduction
	// (spec.md section 4.1: "When bits == 256 ... Otherwise fall back to
	// generic big-int multiply + fast_modp"); every other registered
	// curve, including P-384 and the Montgomery reduction the x/z
	// package needs, uses the generic Barrett fallback.
	if f.Grp.Bits == 256 {
		fastModP256(n, p)
	} else {
		f.barrettReduce(n)
	}

	for n.Sign() < 0 {
		n.Add(n, p)
	}
	for n.Cmp(p) >= 0 {
		n.SubAbs(n, p)
	}
}

// barrettReduce implements Barrett reduction, mu = floor(2^(2*64*words)/P)
// with words = ceil(bits/64), computed once and cached, generalizing btc/utilsP256.go's CalcMu and
// BarrettDiv from their hard-coded 256-bit/4-word case to an arbitrary
// bit width sized off f.Grp.Bits.
func (f *Arith) barrettReduce(n *mpi.Int) {
	f.muOnce.Do(func() {
		f.words = (f.Grp.Bits + 63) / 64
		n2k := new(big.Int).Lsh(big.NewInt(1), uint(f.words*64*2))
		f.mu = new(big.Int).Div(n2k, f.Grp.P.Big())
	})

	// Reduce lifts a negative input into non-negative range before calling
	// this, so prod is never negative here.
	prod := n.Big()
	shift := uint(f.words * 64)
	q1 := new(big.Int).Rsh(prod, shift-64)
	qq := new(big.Int).Mul(q1, f.mu)
	q := new(big.Int).Rsh(qq, shift+64)
	r := new(big.Int).Sub(prod, new(big.Int).Mul(q, f.Grp.P.Big()))
	n.Set(mpi.FromBytes(r.Bytes()))
}

// fastModP256 implements the FIPS 186-3 section D.2 reduction spec.md
// section 4.1 specifies: the nine-term signed sum
// s1 + 2s2 + 2s3 + s4 + s5 - s6 - s7 - s8 - s9 of the input's 32-bit words,
// c0 (least significant) through c15. The result is congruent to n mod p
// but may still be negative or >= p; Reduce's cleanup loops finish the job.
func fastModP256(n *mpi.Int, p *mpi.Int) {
	_ = p // kept for signature symmetry with the generic reduction path
	nb := n.Big()
	mask := big.NewInt(0xFFFFFFFF)
	c := make([]*big.Int, 16)
	for i := range c {
		c[i] = new(big.Int).And(new(big.Int).Rsh(nb, uint(32*i)), mask)
	}

	// word builds a little-endian 8x32-bit value from the given word
	// indices into c, low word first; a negative index means "zero".
	word := func(idx ...int) *big.Int {
		v := new(big.Int)
		for pos, i := range idx {
			if i < 0 {
				continue
			}
			shifted := new(big.Int).Lsh(c[i], uint(32*pos))
			v.Add(v, shifted)
		}
		return v
	}

	s1 := word(0, 1, 2, 3, 4, 5, 6, 7)
	s2 := word(-1, -1, -1, 11, 12, 13, 14, 15)
	s3 := word(-1, -1, -1, 12, 13, 14, 15, -1)
	s4 := word(8, 9, 10, -1, -1, -1, 14, 15)
	s5 := word(9, 10, 11, 13, 14, 15, 13, 8)
	s6 := word(11, 12, 13, -1, -1, -1, 8, 10)
	s7 := word(12, 13, 14, 15, -1, -1, 9, 11)
	s8 := word(13, 14, 15, 8, 9, 10, -1, 12)
	s9 := word(14, 15, -1, 9, 10, 11, -1, 13)

	res := new(big.Int).Set(s1)
	res.Add(res, new(big.Int).Lsh(s2, 1))
	res.Add(res, new(big.Int).Lsh(s3, 1))
	res.Add(res, s4)
	res.Add(res, s5)
	res.Sub(res, s6)
	res.Sub(res, s7)
	res.Sub(res, s8)
	res.Sub(res, s9)

	n.Set(mpi.FromBigInt(res))
}
