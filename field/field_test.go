package field

import (
	"math/big"
	"testing"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// TestMulAgreesWithBigInt cross-checks the P-256 fast-reduction path against
// plain math/big modular multiplication for the generator's own
// coordinates, Gx*Gy.
func TestMulAgreesWithBigInt(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := New(grp)

	a := grp.Gx
	b := grp.Gy
	got := mpi.NewInt(grp.ByteLen())
	f.Mul(got, a, b)

	want := new(big.Int).Mul(a.Big(), b.Big())
	want.Mod(want, grp.P.Big())

	if got.Big().Cmp(want) != 0 {
		t.Fatalf("Mul(Gx, Gy) mod P = %x, want %x", got.Bytes(), want.Bytes())
	}
}

// TestSqrAgreesWithBigInt exercises the same cross-check for Sqr.
func TestSqrAgreesWithBigInt(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := New(grp)

	got := mpi.NewInt(grp.ByteLen())
	f.Sqr(got, grp.Gx)

	want := new(big.Int).Mul(grp.Gx.Big(), grp.Gx.Big())
	want.Mod(want, grp.P.Big())

	if got.Big().Cmp(want) != 0 {
		t.Fatalf("Sqr(Gx) mod P = %x, want %x", got.Bytes(), want.Bytes())
	}
}

// TestBarrettReduceAgreesWithBigInt exercises the generic Barrett fallback
// on P-384, which has no dedicated fast reduction in this registry.
func TestBarrettReduceAgreesWithBigInt(t *testing.T) {
	grp, _ := curve.Get(curve.SECP384R1)
	f := New(grp)

	got := mpi.NewInt(grp.ByteLen())
	f.Mul(got, grp.Gx, grp.Gy)

	want := new(big.Int).Mul(grp.Gx.Big(), grp.Gy.Big())
	want.Mod(want, grp.P.Big())

	if got.Big().Cmp(want) != 0 {
		t.Fatalf("P-384 Mul(Gx, Gy) mod P = %x, want %x", got.Bytes(), want.Bytes())
	}
}

// TestReduceHandlesNegativeInput checks Reduce's cleanup loop brings a
// negative intermediate (the shape the fast-reduction paths produce before
// their own fixup) back into [0, P).
func TestReduceHandlesNegativeInput(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := New(grp)

	n := mpi.NewInt(grp.ByteLen())
	n.SubSigned(mpi.FromUint64(5), grp.P) // 5 - P, negative, congruent to 5 mod P
	f.Reduce(n)

	if n.CmpInt(5) != 0 {
		t.Fatalf("Reduce(5 - P) = %x, want 5", n.Bytes())
	}
}
