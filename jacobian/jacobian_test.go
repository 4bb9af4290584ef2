package jacobian

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/mpi"
)

func hexMpi(t *testing.T, s string) *mpi.Int {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex constant %q: %v", s, err)
	}
	return mpi.FromBytes(b)
}

// TestDoubleP256KAT exercises spec.md section 8's P-256 doubling vector:
// 2G's coordinates.
func TestDoubleP256KAT(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	G := FromAffine(grp, grp.Gx, grp.Gy)
	var dbl Point
	Double(f, &dbl, G, nil)
	Normalise(f, &dbl, nil)

	wantX := hexMpi(t, "7CF27B188D034F7E8A52380304B51AC3C08969E277F21B35A60B48FC47669978")
	wantY := hexMpi(t, "07775510DB8ED040293D9AC69F7430DBBA7DADE63CE982299E04B79D227873D1")
	if dbl.X.Cmp(wantX) != 0 || dbl.Y.Cmp(wantY) != 0 {
		t.Fatalf("2G = (%x, %x), want (%x, %x)", dbl.X.Bytes(), dbl.Y.Bytes(), wantX.Bytes(), wantY.Bytes())
	}
}

// TestDoubleP384KAT exercises spec.md section 8's "P-384 base, k=2" vector
// against the NIST test vector for secp384r1 point doubling.
func TestDoubleP384KAT(t *testing.T) {
	grp, _ := curve.Get(curve.SECP384R1)
	f := field.New(grp)

	G := FromAffine(grp, grp.Gx, grp.Gy)
	var dbl Point
	Double(f, &dbl, G, nil)
	Normalise(f, &dbl, nil)

	wantX := hexMpi(t, "00cbcec2072d469bf7b903ee2f272c25bb59bed2943a1276a36fd52bb18930e6f1957983eab45ab06666d050a22b577d")
	wantY := hexMpi(t, "005997e90361064ddf368f12b4521ba5746be115e089cd08b3dca50d632370d0ee1ad4ff66a694f98ab122b0dce4aff2")
	if dbl.X.Cmp(wantX) != 0 || dbl.Y.Cmp(wantY) != 0 {
		t.Fatalf("2G = (%x, %x), want (%x, %x)", dbl.X.Bytes(), dbl.Y.Bytes(), wantX.Bytes(), wantY.Bytes())
	}
}

// TestDoubleMatchesAddMixed checks that doubling G agrees with adding G to
// itself through the mixed-addition path's P==Q delegation.
func TestDoubleMatchesAddMixed(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	G := FromAffine(grp, grp.Gx, grp.Gy)
	var dbl, added Point
	Double(f, &dbl, G, nil)
	if err := AddMixed(f, &added, G, G, nil); err != nil {
		t.Fatalf("AddMixed(G, G): %v", err)
	}
	Normalise(f, &dbl, nil)
	Normalise(f, &added, nil)
	if dbl.X.Cmp(added.X) != 0 || dbl.Y.Cmp(added.Y) != 0 {
		t.Fatalf("Double(G) != AddMixed(G, G): (%x,%x) vs (%x,%x)",
			dbl.X.Bytes(), dbl.Y.Bytes(), added.X.Bytes(), added.Y.Bytes())
	}
}

// TestAddMixedInfinity checks that adding the point at infinity to G by
// mixed addition returns G unchanged.
func TestAddMixedInfinity(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	G := FromAffine(grp, grp.Gx, grp.Gy)
	inf := Infinity(grp)
	var sum Point
	if err := AddMixed(f, &sum, inf, G, nil); err != nil {
		t.Fatalf("AddMixed(infinity, G): %v", err)
	}
	Normalise(f, &sum, nil)
	if sum.X.Cmp(grp.Gx) != 0 || sum.Y.Cmp(grp.Gy) != 0 {
		t.Fatalf("infinity + G = (%x,%x), want G", sum.X.Bytes(), sum.Y.Bytes())
	}
}

// TestNormaliseMany checks the batch inversion path agrees with normalising
// each point individually, including a point at infinity in the batch.
func TestNormaliseMany(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	G := FromAffine(grp, grp.Gx, grp.Gy)
	var d2, d3 Point
	Double(f, &d2, G, nil)
	Double(f, &d3, &d2, nil)

	single := []*Point{G.Clone(), d2.Clone(), Infinity(grp), d3.Clone()}
	for _, p := range single {
		Normalise(f, p, nil)
	}

	batch := []*Point{G.Clone(), (&d2).Clone(), Infinity(grp), (&d3).Clone()}
	NormaliseMany(f, batch, nil)

	for i := range single {
		if single[i].IsInfinity() != batch[i].IsInfinity() {
			t.Fatalf("point %d: infinity mismatch", i)
		}
		if single[i].IsInfinity() {
			continue
		}
		if single[i].X.Cmp(batch[i].X) != 0 || single[i].Y.Cmp(batch[i].Y) != 0 {
			t.Fatalf("point %d: batch normalise disagrees with single normalise", i)
		}
	}
}

// TestSafeInvertOrderTwoPoint checks SafeInvert's nonzero guard: a point
// with Y == 0 must be left unchanged even when cond == 1.
func TestSafeInvertOrderTwoPoint(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	p := &Point{Grp: grp, X: grp.Gx.Clone(), Y: mpi.NewInt(grp.ByteLen()), Z: mpi.FromUint64(1), Zc: ZOne}
	SafeInvert(f, p, 1, nil)
	if !p.Y.IsZero() {
		t.Fatalf("SafeInvert negated a Y == 0 point: got %x", p.Y.Bytes())
	}
}

// TestSafeInvertNegatesY checks the ordinary case: cond == 1 negates a
// nonzero Y, cond == 0 leaves it alone.
func TestSafeInvertNegatesY(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	p := FromAffine(grp, grp.Gx, grp.Gy)
	negY := mpi.NewInt(grp.ByteLen())
	negY.SubSigned(grp.P, grp.Gy)
	f.Reduce(negY)

	untouched := p.Clone()
	SafeInvert(f, untouched, 0, nil)
	if untouched.Y.Cmp(grp.Gy) != 0 {
		t.Fatalf("SafeInvert with cond=0 changed Y")
	}

	negated := p.Clone()
	SafeInvert(f, negated, 1, nil)
	if negated.Y.Cmp(negY) != 0 {
		t.Fatalf("SafeInvert with cond=1 did not negate Y: got %x, want %x", negated.Y.Bytes(), negY.Bytes())
	}
}

// TestRandomiseFixesPoint checks that Coron blinding leaves the affine
// coordinates unchanged after re-normalisation.
func TestRandomiseFixesPoint(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	p := FromAffine(grp, grp.Gx, grp.Gy)
	if err := Randomise(f, p, rand.Reader, nil); err != nil {
		t.Fatalf("Randomise: %v", err)
	}
	Normalise(f, p, nil)
	if p.X.Cmp(grp.Gx) != 0 || p.Y.Cmp(grp.Gy) != 0 {
		t.Fatalf("Randomise changed the affine point: got (%x,%x)", p.X.Bytes(), p.Y.Bytes())
	}
}
