package snarkjs

import (
	"errors"
	"path/filepath"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/obsqra/riskproof/graph"
	"github.com/obsqra/riskproof/prover"
)

func proveSmall(t *testing.T) (*prover.Proof, *prover.Settings) {
	t.Helper()
	g := graph.New()
	a := g.Input("a", 3)
	b := g.Input("b", 5)
	g.Output(g.AddConst(g.Mul(a, b), 3))
	g.Output(g.Less(a, b))

	s, err := prover.Compile(g)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	st, err := s.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	tr, err := s.Trace(st)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	proof, err := prover.Prove(tr, st)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	return proof, st
}

func TestExportVerify(t *testing.T) {
	proof, st := proveSmall(t)
	bundle, err := Export(proof, st)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := bundle.PublicSignals; len(got) != 2 || got[0] != "18" || got[1] != "1" {
		t.Fatalf("public signals = %v, want [18 1]", got)
	}
	if bundle.VerificationKey.NPublic != 2 || len(bundle.VerificationKey.IC) != 3 {
		t.Fatalf("nPublic = %d, IC = %d", bundle.VerificationKey.NPublic, len(bundle.VerificationKey.IC))
	}

	dir := filepath.Join(t.TempDir(), "bundle")
	if err := bundle.WriteDir(dir); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := VerifyDir(dir); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestTamperedSignalsFail(t *testing.T) {
	proof, st := proveSmall(t)
	bundle, err := Export(proof, st)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	bundle.PublicSignals[0] = "19"

	if err := bundle.VerifyNative(); !errors.Is(err, ErrInvalidProof) {
		t.Errorf("gnark accepted a tampered signal: %v", err)
	}
	if err := bundle.VerifyGoSnark(); err == nil {
		t.Error("go-snark accepted a tampered signal")
	}

	bundle.PublicSignals = bundle.PublicSignals[:1]
	if err := bundle.VerifyNative(); !errors.Is(err, ErrInvalidProof) {
		t.Errorf("expected a signal count error, got %v", err)
	}
}

func TestPointRoundTrip(t *testing.T) {
	_, _, g1, g2 := curve.Generators()

	p1, err := stringToG1(g1ToStrings(&g1))
	if err != nil {
		t.Fatal(err)
	}
	if !p1.Equal(&g1) {
		t.Error("G1 generator changed in round trip")
	}
	p2, err := stringToG2(g2ToStrings(&g2))
	if err != nil {
		t.Fatal(err)
	}
	if !p2.Equal(&g2) {
		t.Error("G2 generator changed in round trip")
	}

	var inf1 curve.G1Affine
	p1, err = stringToG1(g1ToStrings(&inf1))
	if err != nil || !p1.IsInfinity() {
		t.Errorf("G1 infinity: %v, %v", p1, err)
	}
	var inf2 curve.G2Affine
	p2, err = stringToG2(g2ToStrings(&inf2))
	if err != nil || !p2.IsInfinity() {
		t.Errorf("G2 infinity: %v, %v", p2, err)
	}

	for _, bad := range [][]string{
		{"1", "2"},
		{"1", "3", "1"}, // not on the curve
		{"1", "2", "5"},
		{"x", "2", "1"},
	} {
		if _, err := stringToG1(bad); err == nil {
			t.Errorf("stringToG1(%v) succeeded", bad)
		}
	}
}

func TestReadDirMissing(t *testing.T) {
	if _, err := ReadDir(t.TempDir()); err == nil {
		t.Error("expected an error for an empty directory")
	}
}
