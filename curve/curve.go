// Package curve holds the registry of supported elliptic curves and the
// immutable Group description each one resolves to (spec sections 3 and 6).
//
// The teacher's sm2/elliptic.go keeps exactly this shape for a single curve
// (package-level *CurveParams values built once in an init/sync.Once and
// handed out by constructor functions: SM2(), P256(), BTC()). This package
// generalizes that to the registry spec.md section 6 asks for, ordered by
// internal id the way ecp.c's ecp_supported_curves table is, with
// secp256r1 listed first as "the most used one" per that table's comment.
package curve

import (
	"sync"

	"github.com/tempesta-tls/ecgroup/mpi"
)

// Form distinguishes the two group laws the core implements.
type Form int

const (
	// ShortWeierstrass curves: y^2 = x^3 + a*x + b.
	ShortWeierstrass Form = iota
	// Montgomery curves, used x-only: B*y^2 = x^3 + A*x^2 + x.
	Montgomery
)

// Coeff is the short-Weierstrass "a" coefficient. Rather than overload an
// "empty MPI" to mean both "a == -3" and "a == 0, save the limbs", as the C
// source does, it is an explicit tagged value (see spec.md section 9,
// Design Notes, "Empty-coordinate sentinel").
type Coeff struct {
	minusThree bool
	value      *mpi.Int // nil iff minusThree
}

// MinusThree is the curve coefficient sentinel for the NIST a = -3 family,
// which JacPoint.Double and CheckPubkey fast-path.
var MinusThree = Coeff{minusThree: true}

// ValueCoeff wraps an explicit "a" coefficient (used by Montgomery curves,
// where A is a real curve parameter, never -3).
func ValueCoeff(v *mpi.Int) Coeff { return Coeff{value: v} }

// IsMinusThree reports whether the coefficient is the -3 fast-path sentinel.
func (c Coeff) IsMinusThree() bool { return c.minusThree }

// Value returns the explicit coefficient value. It must not be called when
// IsMinusThree() is true.
func (c Coeff) Value() *mpi.Int { return c.value }

// ID is the internal curve identifier.
type ID uint

const (
	None ID = iota
	SECP256R1
	SECP384R1
	X25519
)

// Group is the immutable description of one curve: the data half of
// spec.md section 3's "Group". It is safe to share across goroutines for
// read (spec section 5) once returned by a constructor.
type Group struct {
	ID      ID
	TLSID   uint16
	Name    string
	Form    Form
	Bits    int
	P       *mpi.Int
	A       Coeff // meaningful only for ShortWeierstrass
	B       *mpi.Int
	N      *mpi.Int // subgroup order; meaningful only for ShortWeierstrass
	Gx, Gy *mpi.Int // Gy is unused/zero for Montgomery curves

	combOnce sync.Once
	combT    any // *comb.Table, stored as any to avoid an import cycle
}

// ByteLen is the SEC1/TLS wire width of one coordinate: ceil(bits/8).
func (g *Group) ByteLen() int { return (g.Bits + 7) / 8 }

// CombTable returns the cached generator comb table, building it on first
// use and lazily latching it thereafter (spec.md section 9, Design Notes,
// "Cached generator table"). build is called at most once per Group.
func (g *Group) CombTable(build func() any) any {
	g.combOnce.Do(func() { g.combT = build() })
	return g.combT
}

// CurveInfo is one row of the curve registry (spec.md section 6).
type CurveInfo struct {
	ID     ID
	TLSID  uint16
	Bits   int
	Name   string
}

// registry mirrors ecp.c's ecp_supported_curves, secp256r1 first as the
// most common curve, terminated implicitly by slice length rather than a
// sentinel row.
var registry = []CurveInfo{
	{SECP256R1, 23, 256, "secp256r1"},
	{SECP384R1, 24, 384, "secp384r1"},
}

// Presets is the ordered list of curves the TLS layer advertises by
// default (spec.md section 6, "Preset list").
var Presets = []ID{SECP256R1, SECP384R1}

// ByID looks up a registry row by internal id. It reports ok == false for
// unregistered ids, including X25519 which is a reserved extension not
// advertised over the RFC 8422 NamedCurve wire format (spec.md section 9,
// Open Question on Montgomery curves, decided as option (a): the curve is
// implemented and exercised, but not registered for TLS negotiation).
func ByID(id ID) (CurveInfo, bool) {
	for _, c := range registry {
		if c.ID == id {
			return c, true
		}
	}
	return CurveInfo{}, false
}

// ByTLSID looks up a registry row by its RFC 8422 NamedCurve id.
func ByTLSID(tlsID uint16) (CurveInfo, bool) {
	for _, c := range registry {
		if c.TLSID == tlsID {
			return c, true
		}
	}
	return CurveInfo{}, false
}

// Get resolves a registered ID into its Group, building it on first call.
func Get(id ID) (*Group, bool) {
	switch id {
	case SECP256R1:
		return p256Group(), true
	case SECP384R1:
		return p384Group(), true
	case X25519:
		return x25519Group(), true
	default:
		return nil, false
	}
}
