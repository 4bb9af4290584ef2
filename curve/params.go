package curve

import (
	"math/big"
	"sync"

	"github.com/tempesta-tls/ecgroup/mpi"
)

// hexInt parses a hex string into an Int, panicking on malformed input
// (these are compile-time-known curve constants, same use the teacher
// makes of big.Int.SetString in sm2/elliptic.go's init()).
func hexInt(s string) *mpi.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curve: bad constant " + s)
	}
	return mpi.FromBytes(v.Bytes())
}

var (
	p256Once sync.Once
	p256     *Group

	p384Once sync.Once
	p384     *Group

	x25519Once sync.Once
	x25519     *Group
)

// p256Group builds the secp256r1 (NIST P-256) group, FIPS 186-3 D.1.2.3.
func p256Group() *Group {
	p256Once.Do(func() {
		p256 = &Group{
			ID:    SECP256R1,
			TLSID: 23,
			Name:  "secp256r1",
			Form:  ShortWeierstrass,
			Bits:  256,
			P:     hexInt("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFF"),
			A:     MinusThree,
			B:     hexInt("5AC635D8AA3A93E7B3EBBD55769886BC651D06B0CC53B0F63BCE3C3E27D2604B"),
			N:     hexInt("FFFFFFFF00000000FFFFFFFFFFFFFFFFBCE6FAADA7179E84F3B9CAC2FC632551"),
			Gx:    hexInt("6B17D1F2E12C4247F8BCE6E563A440F277037D812DEB33A0F4A13945D898C296"),
			Gy:    hexInt("4FE342E2FE1A7F9B8EE7EB4A7C0F9E162BCE33576B315ECECBB6406837BF51F5"),
		}
	})
	return p256
}

// p384Group builds the secp384r1 (NIST P-384) group, FIPS 186-3 D.1.2.4.
// The teacher has no dedicated 384-bit reduction; spec.md section 4.1 says
// "otherwise fall back to generic big-int multiply + fast_modp", realized
// here with the Barrett scheme ported from btc/utilsP256.go's
// CalcMu/BarrettDiv (generalized from the fixed 4-limb/256-bit case to
// 384 bits).
func p384Group() *Group {
	p384Once.Do(func() {
		p384 = &Group{
			ID:    SECP384R1,
			TLSID: 24,
			Name:  "secp384r1",
			Form:  ShortWeierstrass,
			Bits:  384,
			P: hexInt("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFE" +
				"FFFFFFFF0000000000000000FFFFFFFF"),
			A: MinusThree,
			B: hexInt("B3312FA7E23EE7E4988E056BE3F82D19181D9C6EFE8141120314088F5013875A" +
				"C656398D8A2ED19D2A85C8EDD3EC2AEF"),
			N: hexInt("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFC7634D81F4372DDF" +
				"581A0DB248B0A77AECEC196ACCC52973"),
			Gx: hexInt("AA87CA22BE8B05378EB1C71EF320AD746E1D3B628BA79B9859F741E082542A3" +
				"85502F25DBF55296C3A545E3872760AB7"),
			Gy: hexInt("3617DE4A96262C6F5D9E98BF9292DC29F8F41DBD289A147CE9DA3113B5F0B8C" +
				"00A60B1CE1D7E819D7A431D7C90EA0E5F"),
		}
	})
	return p384
}

// x25519Group builds the Curve25519 Montgomery group (spec.md Open
// Question on Montgomery curves, decided as option (a): register and
// exercise it). Constants per RFC 7748 section 4.1. Gy is set to zero, since
// x-only Montgomery arithmetic carries no y-coordinate; the curve form is
// given by the explicit Form field, not inferred from Gy.
func x25519Group() *Group {
	x25519Once.Do(func() {
		p := hexInt("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFED")
		x25519 = &Group{
			ID:    X25519,
			Name:  "x25519",
			Form:  Montgomery,
			// RFC 7748's clamp sets bit 254 and clears bit 255, so the
			// committed scalar bit-length is 255 and grp.Bits (= that
			// length minus one, matching ttls_ecp_check_privkey's
			// bitlen(d)-1 == grp.bits test) is 254, not the 255-bit
			// field size.
			Bits: 254,
			P:     p,
			A:     ValueCoeff(mpi.FromUint64(486662)),
			B:     mpi.FromUint64(1),
			N:     hexInt("1000000000000000000000000000000014DEF9DEA2F79CD65812631A5CF5D3ED"),
			Gx:    mpi.FromUint64(9),
			Gy:    mpi.NewInt(0), // unused: x-only curve
		}
	})
	return x25519
}
