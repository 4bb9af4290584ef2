package group

import (
	"crypto/rand"
	"testing"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/jacobian"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// TestKeygenWeierstrassProducesValidKeys runs group.Keygen on both NIST
// curves and checks the resulting keypair passes CheckPubkey/CheckPrivkey.
func TestKeygenWeierstrassProducesValidKeys(t *testing.T) {
	for _, id := range []curve.ID{curve.SECP256R1, curve.SECP384R1} {
		grp, _ := curve.Get(id)
		f := field.New(grp)

		kp, err := Keygen(f, grp, rand.Reader)
		if err != nil {
			t.Fatalf("%s: Keygen: %v", grp.Name, err)
		}
		if err := CheckPrivkey(grp, kp.D); err != nil {
			t.Fatalf("%s: generated private key failed CheckPrivkey: %v", grp.Name, err)
		}
		if err := CheckPubkey(f, grp, kp.Q); err != nil {
			t.Fatalf("%s: generated public key failed CheckPubkey: %v", grp.Name, err)
		}
	}
}

// TestKeygenMontgomeryProducesValidKeys mirrors the above for Curve25519's
// clamp-based keygen branch.
func TestKeygenMontgomeryProducesValidKeys(t *testing.T) {
	grp, _ := curve.Get(curve.X25519)
	f := field.New(grp)

	kp, err := Keygen(f, grp, rand.Reader)
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	if err := CheckPrivkey(grp, kp.X); err != nil {
		t.Fatalf("generated private key failed CheckPrivkey: %v", err)
	}
	if err := CheckPubkeyX(grp, kp.Qx); err != nil {
		t.Fatalf("generated public key failed CheckPubkeyX: %v", err)
	}
}

// TestCheckPubkeyRejectsOffCurvePoint checks spec.md section 8's invalid-
// point-rejection testable property: a point with Y^2 != X^3 + AX + B must
// be reported as Invalid.
func TestCheckPubkeyRejectsOffCurvePoint(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	bogus := jacobian.FromAffine(grp, grp.Gx, grp.Gx) // (Gx, Gx) is not on the curve
	err := CheckPubkey(f, grp, bogus)
	if err == nil {
		t.Fatalf("CheckPubkey accepted an off-curve point")
	}
	if e, ok := err.(*Error); !ok || e.Kind != Invalid {
		t.Fatalf("CheckPubkey error = %v, want Kind == Invalid", err)
	}
}

// TestCheckPrivkeyRejectsOutOfRangeScalar checks d == 0 and d >= N are both
// rejected for a short-Weierstrass curve.
func TestCheckPrivkeyRejectsOutOfRangeScalar(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)

	if err := CheckPrivkey(grp, mpi.FromUint64(0)); err == nil {
		t.Fatalf("CheckPrivkey accepted d == 0")
	}
	if err := CheckPrivkey(grp, grp.N); err == nil {
		t.Fatalf("CheckPrivkey accepted d == N")
	}
}

// TestMulGMatchesMul checks MulG(m) against Mul(m, G) directly, so the
// cached-table path and the general path agree.
func TestMulGMatchesMul(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)
	G := jacobian.FromAffine(grp, grp.Gx, grp.Gy)

	m := mpi.FromUint64(12345)
	viaG, err := MulG(f, grp, m, nil)
	if err != nil {
		t.Fatalf("MulG: %v", err)
	}
	viaMul, err := Mul(f, grp, m, G, nil)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if viaG.X.Cmp(viaMul.X) != 0 || viaG.Y.Cmp(viaMul.Y) != 0 {
		t.Fatalf("MulG disagrees with Mul(m, G): (%x,%x) vs (%x,%x)",
			viaG.X.Bytes(), viaG.Y.Bytes(), viaMul.X.Bytes(), viaMul.Y.Bytes())
	}
}

// TestECDHAgreementWeierstrass checks spec.md section 8's ECDH-agreement
// property on the short-Weierstrass path using two freshly generated
// keypairs.
func TestECDHAgreementWeierstrass(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)

	alice, err := Keygen(f, grp, rand.Reader)
	if err != nil {
		t.Fatalf("alice Keygen: %v", err)
	}
	bob, err := Keygen(f, grp, rand.Reader)
	if err != nil {
		t.Fatalf("bob Keygen: %v", err)
	}

	aliceShared, err := Mul(f, grp, alice.D, bob.Q, rand.Reader)
	if err != nil {
		t.Fatalf("alice shared secret: %v", err)
	}
	bobShared, err := Mul(f, grp, bob.D, alice.Q, rand.Reader)
	if err != nil {
		t.Fatalf("bob shared secret: %v", err)
	}
	if aliceShared.X.Cmp(bobShared.X) != 0 || aliceShared.Y.Cmp(bobShared.Y) != 0 {
		t.Fatalf("ECDH agreement failed: alice got (%x,%x), bob got (%x,%x)",
			aliceShared.X.Bytes(), aliceShared.Y.Bytes(), bobShared.X.Bytes(), bobShared.Y.Bytes())
	}
}

// TestMulAddMatchesMul checks MulAdd(m, n, Q) against a direct
// Mul(m,G)+Mul(n,Q) computed through the constant-time path, confirming the
// verification-only shortcut agrees with the general multiply.
func TestMulAddMatchesMul(t *testing.T) {
	grp, _ := curve.Get(curve.SECP256R1)
	f := field.New(grp)
	G := jacobian.FromAffine(grp, grp.Gx, grp.Gy)

	kp, err := Keygen(f, grp, rand.Reader)
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	m := mpi.FromUint64(7)
	n := mpi.FromUint64(11)

	got, err := MulAdd(f, grp, m, n, kp.Q)
	if err != nil {
		t.Fatalf("MulAdd: %v", err)
	}

	mG, err := Mul(f, grp, m, G, nil)
	if err != nil {
		t.Fatalf("Mul(m, G): %v", err)
	}
	nQ, err := Mul(f, grp, n, kp.Q, nil)
	if err != nil {
		t.Fatalf("Mul(n, Q): %v", err)
	}
	var want jacobian.Point
	if err := jacobian.AddMixed(f, &want, mG, nQ, nil); err != nil {
		t.Fatalf("AddMixed: %v", err)
	}
	jacobian.Normalise(f, &want, nil)

	if got.X.Cmp(want.X) != 0 || got.Y.Cmp(want.Y) != 0 {
		t.Fatalf("MulAdd = (%x,%x), want (%x,%x)", got.X.Bytes(), got.Y.Bytes(), want.X.Bytes(), want.Y.Bytes())
	}
}
