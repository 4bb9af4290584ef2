// Package comb implements the modified comb method for constant-time
// scalar multiplication on short-Weierstrass curves (spec.md section 4.3),
// grounded directly on original_source/tls/ecp.c's ecp_comb_fixed,
// ecp_precompute_comb, ecp_select_comb, ecp_mul_comb_core and ecp_mul_comb —
// the teacher has no comb-method code of its own (sm2/btc only do plain
// double-and-add), so this package follows the cited original line for
// line rather than the teacher's naming.
package comb

import (
	"errors"
	"io"

	"github.com/tempesta-tls/ecgroup/arena"
	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/jacobian"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// combMaxD bounds the comb digit count the way ecp.c's COMB_MAX_D does,
// sized off the largest bit width this registry carries (P-384).
const combMaxD = (384 + 1) / 2

var (
	errNOddRequired = errors.New("comb: group order N must be odd")
	errDTooLarge    = errors.New("comb: comb digit count exceeds COMB_MAX_D")
)

// Table is a precomputed comb table: Table[i] holds the point
// i_{w-1}*2^{(w-1)d}*P + ... + i_1*2^d*P + P for the binary digits of i, for
// i in [0, 2^(w-1)). Every entry is affine (Z == 1) after construction.
type Table []*jacobian.Point

// windowFor picks w per spec.md section 4.3: 5 teeth for 384-bit curves, 4
// for 256-bit, widened by one when the base point is the group's own
// generator (the resulting bigger table is cached and amortises over many
// multiplications against G).
func windowFor(grp *curve.Group, pEqG bool) int {
	w := 4
	if grp.Bits == 384 {
		w = 5
	}
	if pEqG {
		w++
	}
	if w > 7 {
		w = 7
	}
	return w
}

// digitsFor returns d = ceil(bits/w).
func digitsFor(grp *curve.Group, w int) int {
	return (grp.Bits + w - 1) / w
}

// CombFixed recodes odd scalar m (bit-length <= w*d) into d+1 bytes whose
// low 7 bits hold an odd digit and whose high bit is the sign, per ecp.c's
// ecp_comb_fixed: first the classical comb digits, then a carry sweep that
// forces every x[1..d] odd by folding the parity fixup into the digit below.
func CombFixed(m *mpi.Int, w, d int) []byte {
	x := make([]byte, d+1)

	for i := 0; i < d; i++ {
		for j := 0; j < w; j++ {
			x[i] |= byte(m.Bit(i+d*j)) << uint(j)
		}
	}

	var c byte
	for i := 1; i <= d; i++ {
		cc := x[i] & c
		x[i] ^= c
		c = cc

		adjust := byte(1 - (x[i] & 1))
		c |= x[i] & (x[i-1] * adjust)
		x[i] ^= x[i-1] * adjust
		x[i-1] |= adjust << 7
	}

	return x
}

// PrecomputeComb builds a comb table for P: T[0] = P, T[2^k] = 2^(d(k+1))*P
// for k in [0, w-1) by repeated doubling, then every remaining T[i+j] = T[j]+T[i]
// by mixed addition, batch-normalising each tier with
// jacobian.NormaliseMany (mirrors ecp_precompute_comb's two
// ecp_normalize_jac_many passes).
func PrecomputeComb(f *field.Arith, P *jacobian.Point, w, d int) (Table, error) {
	preLen := 1 << (w - 1)
	T := make(Table, preLen)
	var scratch arena.Arena

	norm := P.Clone()
	jacobian.Normalise(f, norm, &scratch)
	T[0] = norm

	var powers []*jacobian.Point
	for i := 1; i < preLen; i <<= 1 {
		cur := T[i>>1].Clone()
		for j := 0; j < d; j++ {
			mark := scratch.Mark()
			var dbl jacobian.Point
			jacobian.Double(f, &dbl, cur, &scratch)
			scratch.Release(mark)
			cur = &dbl
		}
		T[i] = cur
		powers = append(powers, cur)
	}
	jacobian.NormaliseMany(f, powers, &scratch)

	var sums []*jacobian.Point
	for i := 1; i < preLen; i <<= 1 {
		// Walk j from i-1 down to 0: T[i+0] aliases T[i] itself, so it must
		// be the last one computed, after every other T[i+j] has already
		// read T[i]'s original value (ecp_precompute_comb's own ordering
		// note: "update T[2^l] only after using it").
		for j := i - 1; j >= 0; j-- {
			mark := scratch.Mark()
			var sum jacobian.Point
			if err := jacobian.AddMixed(f, &sum, T[j], T[i], &scratch); err != nil {
				return nil, err
			}
			scratch.Release(mark)
			T[i+j] = &sum
			sums = append(sums, &sum)
		}
	}
	jacobian.NormaliseMany(f, sums, &scratch)

	return T, nil
}

// SelectComb sets R to sign(c) * T[(c & 0x7F) >> 1], reading every table
// entry via a constant-time conditional assign (ecp_select_comb) so table
// access time never depends on the secret digit, then applies the sign via
// jacobian.SafeInvert.
func SelectComb(f *field.Arith, T Table, tLen int, c byte, s mpi.Scratch) *jacobian.Point {
	idx := int((c & 0x7f) >> 1)
	grp := T[0].Grp
	n := grp.ByteLen()
	R := &jacobian.Point{Grp: grp, X: mpi.NewInt(n), Y: mpi.NewInt(n), Z: mpi.FromUint64(1), Zc: jacobian.ZOne}

	for j := 0; j < tLen; j++ {
		cond := 0
		if j == idx {
			cond = 1
		}
		R.X.CondAssign(T[j].X, cond)
		R.Y.CondAssign(T[j].Y, cond)
	}

	jacobian.SafeInvert(f, R, int(c>>7), s)
	return R
}

// MulCombCore is the main comb loop (ecp_mul_comb_core): start from the
// table entry for the top digit, optionally randomise it, then for each
// remaining digit from high to low double and mixed-add the selected entry.
// The odd-digit recoding and 0 < m < N guarantee add_mixed's trivial cases
// never fire inside this loop.
func MulCombCore(f *field.Arith, T Table, tLen int, x []byte, d int, rnd io.Reader) (*jacobian.Point, error) {
	var scratch arena.Arena

	R := SelectComb(f, T, tLen, x[d], &scratch)
	R.Z.SetInt64(1)
	R.Zc = jacobian.ZOne
	if rnd != nil {
		if err := jacobian.Randomise(f, R, rnd, &scratch); err != nil {
			return nil, err
		}
	}

	for i := d - 1; i >= 0; i-- {
		mark := scratch.Mark()
		var dbl jacobian.Point
		jacobian.Double(f, &dbl, R, &scratch)
		Txi := SelectComb(f, T, tLen, x[i], &scratch)
		var sum jacobian.Point
		if err := jacobian.AddMixed(f, &sum, &dbl, Txi, &scratch); err != nil {
			return nil, err
		}
		scratch.Release(mark)
		R = &sum
	}

	return R, nil
}

// MulComb computes m*P using the comb method (ecp_mul_comb): requires N
// (grp.N) odd, substitutes m with N-m in constant time when m is even (since
// m*P == -(N-m)*P), runs the core on the now-odd M, then flips the sign back
// if the substitution happened, and normalises. If P is the group's own
// generator, the group's cached table (built once behind curve.Group's
// sync.Once) is reused instead of a transient one.
func MulComb(f *field.Arith, grp *curve.Group, m *mpi.Int, P *jacobian.Point, rnd io.Reader) (*jacobian.Point, error) {
	if grp.N.Bit(0) != 1 {
		return nil, errNOddRequired
	}

	pEqG := P.X.Cmp(grp.Gx) == 0 && P.Y.Cmp(grp.Gy) == 0

	w := windowFor(grp, pEqG)
	d := digitsFor(grp, w)
	if d > combMaxD {
		return nil, errDTooLarge
	}
	preLen := 1 << (w - 1)

	var T Table
	if pEqG {
		built := grp.CombTable(func() any {
			t, err := PrecomputeComb(f, P, w, d)
			if err != nil {
				return nil
			}
			return t
		})
		if built == nil {
			return nil, errors.New("comb: failed to build cached generator table")
		}
		T = built.(Table)
	} else {
		var err error
		T, err = PrecomputeComb(f, P, w, d)
		if err != nil {
			return nil, err
		}
	}

	var scratch arena.Arena
	mIsOdd := m.Bit(0) == 1
	mm := scratch.Int(grp.ByteLen())
	mm.SubSigned(grp.N, m)
	M := m.Clone()
	cond := 0
	if !mIsOdd {
		cond = 1
	}
	M.CondAssign(mm, cond)

	x := CombFixed(M, w, d)
	R, err := MulCombCore(f, T, preLen, x, d, rnd)
	if err != nil {
		return nil, err
	}

	invCond := 0
	if !mIsOdd {
		invCond = 1
	}
	jacobian.SafeInvert(f, R, invCond, &scratch)
	jacobian.Normalise(f, R, &scratch)
	return R, nil
}
