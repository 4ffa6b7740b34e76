// Package snarkjs exports Groth16 BN254 proofs in the snarkjs JSON format, so
// that they can be checked by snarkjs, Circom verifier contracts or go-snark,
// and imports such bundles back into gnark types.
package snarkjs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File names used by snarkjs for a proof bundle.
const (
	ProofFile         = "proof.json"
	VerifyingKeyFile  = "vkey.json"
	PublicSignalsFile = "public_signals.json"
)

// Proof is the proof structure written by snarkjs.
type Proof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
}

// VerificationKey is the verification key structure written by snarkjs.
type VerificationKey struct {
	Protocol      string       `json:"protocol"`
	Curve         string       `json:"curve"`
	NPublic       int          `json:"nPublic"`
	VkAlpha1      []string     `json:"vk_alpha_1"`
	VkBeta2       [][]string   `json:"vk_beta_2"`
	VkGamma2      [][]string   `json:"vk_gamma_2"`
	VkDelta2      [][]string   `json:"vk_delta_2"`
	VkAlphabeta12 [][][]string `json:"vk_alphabeta_12"` // not used in verification
	IC            [][]string   `json:"IC"`
}

// Bundle is a proof with the verification key and public signals needed to
// check it.
type Bundle struct {
	Proof           *Proof
	VerificationKey *VerificationKey
	PublicSignals   []string
}

// Files returns the JSON encoding of each part of the bundle, keyed by file
// name.
func (b *Bundle) Files() (map[string][]byte, error) {
	parts := map[string]any{
		ProofFile:         b.Proof,
		VerifyingKeyFile:  b.VerificationKey,
		PublicSignalsFile: b.PublicSignals,
	}
	files := make(map[string][]byte, len(parts))
	for name, v := range parts {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		files[name] = data
	}
	return files, nil
}

// WriteDir writes the bundle into dir, creating it if needed.
func (b *Bundle) WriteDir(dir string) error {
	files, err := b.Files()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// ReadDir reads a bundle written by WriteDir or by snarkjs.
func ReadDir(dir string) (*Bundle, error) {
	b := &Bundle{Proof: new(Proof), VerificationKey: new(VerificationKey)}
	for _, f := range []struct {
		name string
		dst  any
	}{
		{ProofFile, b.Proof},
		{VerifyingKeyFile, b.VerificationKey},
		{PublicSignalsFile, &b.PublicSignals},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name)) //nolint:gosec
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}
	return b, nil
}
