// Command ecpdemo exercises the registry, keygen, Mul, and pointio packages
// end to end with a single ECDH agreement, promoting the teacher's
// example_test.go demo (GenerateKey/Sign/Verify over crypto/elliptic) to a
// runnable command over this module's own curve/group/pointio stack
// instead.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/tempesta-tls/ecgroup/curve"
	"github.com/tempesta-tls/ecgroup/field"
	"github.com/tempesta-tls/ecgroup/group"
	"github.com/tempesta-tls/ecgroup/pointio"
)

func main() {
	name := flag.String("curve", "secp256r1", "curve to run ECDH over: secp256r1, secp384r1, or x25519")
	flag.Parse()

	if err := run(*name); err != nil {
		fmt.Fprintln(os.Stderr, "ecpdemo:", err)
		os.Exit(1)
	}
}

func run(name string) error {
	id, err := idForName(name)
	if err != nil {
		return err
	}
	grp, ok := curve.Get(id)
	if !ok {
		return fmt.Errorf("curve %q is not registered", name)
	}
	f := field.New(grp)

	if grp.Form == curve.Montgomery {
		return runMontgomery(f, grp)
	}
	return runWeierstrass(f, grp)
}

func idForName(name string) (curve.ID, error) {
	switch name {
	case "secp256r1":
		return curve.SECP256R1, nil
	case "secp384r1":
		return curve.SECP384R1, nil
	case "x25519":
		return curve.X25519, nil
	default:
		return curve.None, fmt.Errorf("unknown curve %q", name)
	}
}

func runWeierstrass(f *field.Arith, grp *curve.Group) error {
	alice, err := group.Keygen(f, grp, rand.Reader)
	if err != nil {
		return fmt.Errorf("alice keygen: %w", err)
	}
	bob, err := group.Keygen(f, grp, rand.Reader)
	if err != nil {
		return fmt.Errorf("bob keygen: %w", err)
	}

	aliceShared, err := group.Mul(f, grp, alice.D, bob.Q, rand.Reader)
	if err != nil {
		return fmt.Errorf("alice shared secret: %w", err)
	}
	bobShared, err := group.Mul(f, grp, bob.D, alice.Q, rand.Reader)
	if err != nil {
		return fmt.Errorf("bob shared secret: %w", err)
	}

	if aliceShared.X.Cmp(bobShared.X) != 0 {
		return fmt.Errorf("ECDH agreement mismatch on %s", grp.Name)
	}

	wire, err := pointio.WriteTLSPoint(grp, alice.Q, nil)
	if err != nil {
		return fmt.Errorf("encode alice's public point: %w", err)
	}
	decoded, n, err := pointio.ReadTLSPoint(grp, wire)
	if err != nil {
		return fmt.Errorf("decode alice's public point: %w", err)
	}
	if n != len(wire) {
		return fmt.Errorf("decoded %d of %d wire bytes", n, len(wire))
	}
	if err := group.CheckPubkey(f, grp, decoded); err != nil {
		return fmt.Errorf("decoded public point failed validation: %w", err)
	}

	fmt.Printf("%s: ECDH agreement OK, shared x = %x\n", grp.Name, aliceShared.X.Bytes())
	return nil
}

func runMontgomery(f *field.Arith, grp *curve.Group) error {
	alice, err := group.Keygen(f, grp, rand.Reader)
	if err != nil {
		return fmt.Errorf("alice keygen: %w", err)
	}
	bob, err := group.Keygen(f, grp, rand.Reader)
	if err != nil {
		return fmt.Errorf("bob keygen: %w", err)
	}

	aliceShared, err := group.MulX(f, grp, alice.X, bob.Qx)
	if err != nil {
		return fmt.Errorf("alice shared secret: %w", err)
	}
	bobShared, err := group.MulX(f, grp, bob.X, alice.Qx)
	if err != nil {
		return fmt.Errorf("bob shared secret: %w", err)
	}

	if aliceShared.Cmp(bobShared) != 0 {
		return fmt.Errorf("ECDH agreement mismatch on %s", grp.Name)
	}

	fmt.Printf("%s: ECDH agreement OK, shared x = %x\n", grp.Name, aliceShared.Bytes())
	return nil
}
