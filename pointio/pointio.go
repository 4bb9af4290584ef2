// Package pointio implements the SEC1 uncompressed point encoding and its
// RFC 8422 section 5.4 TLS wrappers (spec.md section 4.5), ported directly
// from original_source/tls/ecp.c's ttls_ecp_point_write_binary /
// _read_binary / _tls_write_point / _tls_read_point and
// _tls_write_group / _tls_read_group — the teacher carries no wire-format
// code at all, so this package has no teacher analogue and follows the
// cited original instead.
package pointio

import (
	"errors"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/jacobian"
	"github.com/tempesta-tls/ecgroup/mpi"
)

// Kind-like sentinel errors. group.Error wraps these with the matching Kind
// when callers go through the group package; pointio itself stays a plain,
// errors.New-based leaf (matching btc/utilsP256.go's package-level sentinel
// idiom) since it has no Kind type of its own to attach.
var (
	ErrBadInput           = errors.New("pointio: malformed point encoding")
	ErrNoSpace            = errors.New("pointio: output buffer too small")
	ErrFeatureUnavailable = errors.New("pointio: unsupported point format")
)

// WriteBinary appends P's SEC1 uncompressed encoding to buf and returns the
// result. The point at infinity encodes as the single byte 0x00; otherwise
// 0x04 || X || Y, each coordinate padded to grp.ByteLen() bytes.
func WriteBinary(grp *curve.Group, P *jacobian.Point, buf []byte) ([]byte, error) {
	if P.IsInfinity() {
		return append(buf, 0x00), nil
	}
	plen := grp.ByteLen()
	out := append(buf, 0x04)
	xb := make([]byte, plen)
	yb := make([]byte, plen)
	if !P.X.WriteBinary(xb, plen) || !P.Y.WriteBinary(yb, plen) {
		return nil, ErrNoSpace
	}
	out = append(out, xb...)
	out = append(out, yb...)
	return out, nil
}

// ReadBinary parses a SEC1 uncompressed point. buf[0] == 0x00 with len(buf)
// == 1 decodes the point at infinity; buf[0] == 0x04 with len(buf) ==
// 2*plen+1 decodes an affine point; anything else is ErrBadInput (wrong
// length) or ErrFeatureUnavailable (a compressed form this core doesn't
// implement).
func ReadBinary(grp *curve.Group, buf []byte) (*jacobian.Point, error) {
	if len(buf) < 1 {
		return nil, ErrBadInput
	}
	if buf[0] == 0x00 {
		if len(buf) != 1 {
			return nil, ErrBadInput
		}
		return jacobian.Infinity(grp), nil
	}
	plen := grp.ByteLen()
	if buf[0] != 0x04 {
		return nil, ErrFeatureUnavailable
	}
	if len(buf) != 2*plen+1 {
		return nil, ErrBadInput
	}
	x := mpi.NewInt(plen).ReadBinary(buf[1 : 1+plen])
	y := mpi.NewInt(plen).ReadBinary(buf[1+plen : 1+2*plen])
	return jacobian.FromAffine(grp, x, y), nil
}

// WriteTLSPoint writes the RFC 8422 section 5.4 ECPoint record: a one-byte
// length prefix followed by the SEC1 encoding.
func WriteTLSPoint(grp *curve.Group, P *jacobian.Point, buf []byte) ([]byte, error) {
	start := len(buf)
	out, err := WriteBinary(grp, P, append(buf, 0x00))
	if err != nil {
		return nil, err
	}
	olen := len(out) - start - 1
	if olen < 1 || olen > 255 {
		return nil, ErrNoSpace
	}
	out[start] = byte(olen)
	return out, nil
}

// ReadTLSPoint parses an RFC 8422 section 5.4 ECPoint record from the front
// of buf and returns the decoded point plus the number of bytes consumed.
func ReadTLSPoint(grp *curve.Group, buf []byte) (*jacobian.Point, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrBadInput
	}
	dataLen := int(buf[0])
	if dataLen < 1 || dataLen > len(buf)-1 {
		return nil, 0, ErrBadInput
	}
	P, err := ReadBinary(grp, buf[1:1+dataLen])
	if err != nil {
		return nil, 0, err
	}
	return P, 1 + dataLen, nil
}

// namedCurve is the RFC 8422 ECCurveType byte denoting "named_curve"; any
// other curve_type value is rejected, matching TTLS_ECP_TLS_NAMED_CURVE.
const namedCurve = 0x03

// WriteTLSGroup writes the fixed-form RFC 8422 section 5.4 ECParameters
// record: 0x03 followed by the group's 16-bit NamedCurve id.
func WriteTLSGroup(grp *curve.Group, buf []byte) ([]byte, error) {
	if _, ok := curve.ByID(grp.ID); !ok {
		return nil, ErrBadInput
	}
	out := append(buf, namedCurve, byte(grp.TLSID>>8), byte(grp.TLSID))
	return out, nil
}

// ReadTLSGroup parses an RFC 8422 section 5.4 ECParameters record from the
// front of buf and returns the resolved group plus bytes consumed.
func ReadTLSGroup(buf []byte) (*curve.Group, int, error) {
	if len(buf) < 3 {
		return nil, 0, ErrBadInput
	}
	if buf[0] != namedCurve {
		return nil, 0, ErrBadInput
	}
	tlsID := uint16(buf[1])<<8 | uint16(buf[2])
	info, ok := curve.ByTLSID(tlsID)
	if !ok {
		return nil, 0, ErrFeatureUnavailable
	}
	grp, ok := curve.Get(info.ID)
	if !ok {
		return nil, 0, ErrFeatureUnavailable
	}
	return grp, 3, nil
}
