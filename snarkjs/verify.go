package snarkjs

import (
	"errors"
	"fmt"

	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/vocdoni/go-snark/parsers"
	"github.com/vocdoni/go-snark/verifier"
)

// ErrInvalidProof is returned when a bundle parses but its proof does not
// verify.
var ErrInvalidProof = errors.New("snarkjs proof is invalid")

// VerifyNative imports the bundle into gnark types and verifies it.
func (b *Bundle) VerifyNative() error {
	if len(b.PublicSignals) != b.VerificationKey.NPublic {
		return fmt.Errorf("%w: %d public signals, key expects %d", ErrInvalidProof, len(b.PublicSignals), b.VerificationKey.NPublic)
	}
	proof, err := ConvertProof(b.Proof)
	if err != nil {
		return err
	}
	vk, err := ConvertVerificationKey(b.VerificationKey)
	if err != nil {
		return err
	}
	public, err := ParsePublicSignals(b.PublicSignals)
	if err != nil {
		return err
	}
	if err := groth16_bn254.Verify(proof, vk, public); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	return nil
}

// VerifyGoSnark verifies the bundle with go-snark, an implementation
// independent of gnark.
func (b *Bundle) VerifyGoSnark() error {
	files, err := b.Files()
	if err != nil {
		return err
	}
	public, err := parsers.ParsePublicSignals(files[PublicSignalsFile])
	if err != nil {
		return fmt.Errorf("%s: %w", PublicSignalsFile, err)
	}
	proof, err := parsers.ParseProof(files[ProofFile])
	if err != nil {
		return fmt.Errorf("%s: %w", ProofFile, err)
	}
	vk, err := parsers.ParseVk(files[VerifyingKeyFile])
	if err != nil {
		return fmt.Errorf("%s: %w", VerifyingKeyFile, err)
	}
	if !verifier.Verify(vk, proof, public) {
		return ErrInvalidProof
	}
	return nil
}

// VerifyDir reads a bundle from dir and checks it with both verifiers.
func VerifyDir(dir string) error {
	b, err := ReadDir(dir)
	if err != nil {
		return err
	}
	if err := b.VerifyNative(); err != nil {
		return fmt.Errorf("gnark: %w", err)
	}
	if err := b.VerifyGoSnark(); err != nil {
		return fmt.Errorf("go-snark: %w", err)
	}
	return nil
}
