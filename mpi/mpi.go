// Package mpi is the multi-precision-integer service the elliptic-curve core
// consumes through a narrow, fixed-size-limb contract (see spec section 6).
// It plays the role the teacher's ecc_asm package reserves for its asm
// routines (vli_mod_mult_fast, vli_mod_inv, mont_MulMod, the commented
// p256Select/p256MovCond/p256NegCond family) and that sm2/sm2p.go realizes
// in pure Go with math/big Word slices. This package is that pure-Go
// realization, generalized from SM2's fixed 4-limb case to arbitrary
// bit widths.
package mpi

import (
	"crypto/subtle"
	"io"
	"math/big"
)

// Int is a multi-precision integer carrying a nominal byte capacity, set at
// construction. The capacity is a width hint (it sizes CondAssign/CondSwap's
// fixed-width copies); results are never truncated to it, and the value
// grows as needed, e.g. to hold a double-width product before reduction.
type Int struct {
	v     *big.Int
	nbyte int
}

// NewInt allocates an Int able to hold values up to nbyte bytes wide.
func NewInt(nbyte int) *Int {
	return &Int{v: new(big.Int), nbyte: nbyte}
}

// FromBytes builds an Int from a big-endian byte string, sized to fit it.
func FromBytes(b []byte) *Int {
	return &Int{v: new(big.Int).SetBytes(b), nbyte: len(b)}
}

// FromUint64 builds a small Int, sized to hold at least 8 bytes.
func FromUint64(u uint64) *Int {
	return &Int{v: new(big.Int).SetUint64(u), nbyte: 8}
}

// FromBigInt wraps an existing, possibly-negative big.Int without copying
// it defensively first; used by field internals that already
// computed a signed intermediate with math/big and just need to hand it
// back across the narrow Int contract.
func FromBigInt(v *big.Int) *Int {
	return &Int{v: v, nbyte: (v.BitLen() + 7) / 8}
}

// Clone returns an independent copy.
func (x *Int) Clone() *Int {
	return &Int{v: new(big.Int).Set(x.v), nbyte: x.nbyte}
}

// Cap returns the byte capacity of the Int.
func (x *Int) Cap() int { return x.nbyte }

// Big exposes the underlying value for callers outside the narrow contract
// (tests, KAT comparisons). Mutating the result does not affect x.
func (x *Int) Big() *big.Int { return new(big.Int).Set(x.v) }

// Sign returns -1, 0 or 1.
func (x *Int) Sign() int { return x.v.Sign() }

// IsZero reports whether x is zero.
func (x *Int) IsZero() bool { return x.v.Sign() == 0 }

// BitLen returns the number of bits required to represent x (0 for x == 0).
func (x *Int) BitLen() int { return x.v.BitLen() }

// Bit returns the value of the i-th bit of x (0-indexed from the LSB).
func (x *Int) Bit(i int) uint { return x.v.Bit(i) }

// SetBit sets the i-th bit of x to val (0 or 1).
func (x *Int) SetBit(i int, val uint) {
	x.v.SetBit(x.v, i, val)
}

// Set copies src's value into x; x keeps its own capacity.
func (x *Int) Set(src *Int) *Int {
	x.v.Set(src.v)
	return x
}

// SetInt64 sets x to the small signed value n.
func (x *Int) SetInt64(n int64) *Int {
	x.v.SetInt64(n)
	return x
}

// Cmp compares x and y as signed integers.
func (x *Int) Cmp(y *Int) int { return x.v.Cmp(y.v) }

// CmpInt compares x against a small signed int.
func (x *Int) CmpInt(n int64) int { return x.v.Cmp(big.NewInt(n)) }

// Add sets x = a + b.
func (x *Int) Add(a, b *Int) *Int {
	x.v.Add(a.v, b.v)
	return x
}

// SubSigned sets x = a - b, allowing the result to go negative; the caller
// is responsible for bringing it back into range (mirrors ttls_mpi_sub_mpi
// plus the MOD_SUB macro pattern in ecp.c).
func (x *Int) SubSigned(a, b *Int) *Int {
	x.v.Sub(a.v, b.v)
	return x
}

// SubAbs sets x = |a - b|, assuming a and b are both non-negative and the
// caller already knows a >= b (mirrors ttls_mpi_sub_abs, used only once the
// sign is publicly known).
func (x *Int) SubAbs(a, b *Int) *Int {
	x.v.Sub(a.v, b.v)
	x.v.Abs(x.v)
	return x
}

// Mul sets x = a * b (full precision, not reduced).
func (x *Int) Mul(a, b *Int) *Int {
	x.v.Mul(a.v, b.v)
	return x
}

// Sqr sets x = a * a (full precision, not reduced).
func (x *Int) Sqr(a *Int) *Int {
	x.v.Mul(a.v, a.v)
	return x
}

// ShiftL sets x = x << n.
func (x *Int) ShiftL(n uint) *Int {
	x.v.Lsh(x.v, n)
	return x
}

// ShiftR sets x = x >> n.
func (x *Int) ShiftR(n uint) *Int {
	x.v.Rsh(x.v, n)
	return x
}

// InvMod sets x = a^-1 mod m. The result is undefined if gcd(a, m) != 1.
func (x *Int) InvMod(a, m *Int) *Int {
	x.v.ModInverse(a.v, m.v)
	return x
}

// Mod sets x = a mod m, 0 <= x < m, m > 0.
func (x *Int) Mod(a, m *Int) *Int {
	x.v.Mod(a.v, m.v)
	return x
}

// Bytes returns x as a big-endian byte slice with no leading zero byte
// trimming beyond what big.Int.Bytes already does.
func (x *Int) Bytes() []byte { return x.v.Bytes() }

// WriteBinary writes x as a big-endian byte string padded with leading
// zeros to exactly n bytes. It reports false if x doesn't fit.
func (x *Int) WriteBinary(buf []byte, n int) bool {
	b := x.v.Bytes()
	if len(b) > n || len(buf) < n {
		return false
	}
	for i := range buf[:n] {
		buf[i] = 0
	}
	copy(buf[n-len(b):n], b)
	return true
}

// ReadBinary sets x from a big-endian byte string.
func (x *Int) ReadBinary(buf []byte) *Int {
	x.v.SetBytes(buf)
	return x
}

// FillRandom draws nbyte random bytes from r and sets x to their big-endian
// value (mirrors ttls_mpi_fill_random, which is always followed by range
// rejection at the call site — this function never rejects by itself).
func (x *Int) FillRandom(r io.Reader, nbyte int) error {
	buf := make([]byte, nbyte)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	x.v.SetBytes(buf)
	return nil
}

// CondAssign sets x = y iff cond == 1, leaving x unchanged iff cond == 0,
// in constant time with respect to cond. cond must be 0 or 1.
//
// This is the pure-Go realization of what ecc_asm.go reserves
// p256MovCond/p256SelectBase for: a fixed-width, data-independent limb
// copy gated by a public 0/1 flag.
func (x *Int) CondAssign(y *Int, cond int) {
	n := maxLen(x, y)
	xb := make([]byte, n)
	yb := make([]byte, n)
	x.v.FillBytes(xb)
	y.v.FillBytes(yb)
	subtle.ConstantTimeCopy(cond, xb, yb)
	x.v.SetBytes(xb)
}

// CondSwap swaps x and y iff cond == 1, in constant time with respect to
// cond. cond must be 0 or 1.
func (x *Int) CondSwap(y *Int, cond int) {
	n := maxLen(x, y)
	xb := make([]byte, n)
	yb := make([]byte, n)
	x.v.FillBytes(xb)
	y.v.FillBytes(yb)
	tmp := make([]byte, n)
	copy(tmp, xb)
	subtle.ConstantTimeCopy(cond, xb, yb)
	subtle.ConstantTimeCopy(cond, yb, tmp)
	x.v.SetBytes(xb)
	y.v.SetBytes(yb)
}

// Scratch supplies short-lived *Int values for hot-path temporaries, the
// narrow capability jacobian's and mxz's point-arithmetic routines need from
// an arena without importing the arena package directly (*arena.Arena
// already satisfies this interface via its own Int method; see spec
// section 5's "no heap allocation on the hot path").
type Scratch interface {
	Int(nbyte int) *Int
}

// ScratchInt returns a temporary Int from s, or allocates a fresh one via
// NewInt if s is nil, the fallback call sites with no arena in scope
// (one-off calls, tests) use.
func ScratchInt(s Scratch, nbyte int) *Int {
	if s != nil {
		return s.Int(nbyte)
	}
	return NewInt(nbyte)
}

func maxLen(x, y *Int) int {
	n := (x.v.BitLen() + 7) / 8
	m := (y.v.BitLen() + 7) / 8
	if m > n {
		n = m
	}
	if x.nbyte > n {
		n = x.nbyte
	}
	if y.nbyte > n {
		n = y.nbyte
	}
	if n == 0 {
		n = 1
	}
	return n
}
