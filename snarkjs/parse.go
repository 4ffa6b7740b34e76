package snarkjs

import (
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// stringToBigInt converts a string to a big.Int, handling both decimal and
// hexadecimal representations.
func stringToBigInt(s string) (*big.Int, error) {
	if len(s) >= 2 && s[:2] == "0x" {
		bi, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("failed to parse hex string %s", s)
		}
		return bi, nil
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse decimal string %s", s)
	}
	return bi, nil
}

func stringToFp(s string) (fp.Element, error) {
	var e fp.Element
	bi, err := stringToBigInt(s)
	if err != nil {
		return e, err
	}
	if bi.Sign() < 0 || bi.Cmp(fp.Modulus()) >= 0 {
		return e, fmt.Errorf("coordinate %s is not in the base field", s)
	}
	e.SetBigInt(bi)
	return e, nil
}

// stringToG1 parses a projective [X, Y, Z] point with Z either 1 or 0 (the
// point at infinity).
func stringToG1(h []string) (*curve.G1Affine, error) {
	if len(h) != 3 { //nolint:gomnd
		return nil, fmt.Errorf("G1 point needs 3 coordinates, got %d", len(h))
	}
	p := new(curve.G1Affine)
	if h[2] == "0" {
		return p, nil
	}
	if h[2] != "1" {
		return nil, fmt.Errorf("G1 point is not normalized: Z = %s", h[2])
	}
	var err error
	if p.X, err = stringToFp(h[0]); err != nil {
		return nil, err
	}
	if p.Y, err = stringToFp(h[1]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, fmt.Errorf("G1 point is not in the subgroup")
	}
	return p, nil
}

// stringToG2 parses [[X.A0, X.A1], [Y.A0, Y.A1], [Z.A0, Z.A1]] with Z either
// [1, 0] or [0, 0].
func stringToG2(h [][]string) (*curve.G2Affine, error) {
	if len(h) != 3 { //nolint:gomnd
		return nil, fmt.Errorf("G2 point needs 3 coordinates, got %d", len(h))
	}
	for i := range h {
		if len(h[i]) != 2 {
			return nil, fmt.Errorf("G2 coordinate %d has %d limbs", i, len(h[i]))
		}
	}
	p := new(curve.G2Affine)
	switch {
	case h[2][0] == "0" && h[2][1] == "0":
		return p, nil
	case h[2][0] != "1" || h[2][1] != "0":
		return nil, fmt.Errorf("G2 point is not normalized: Z = %v", h[2])
	}
	for _, c := range []struct {
		s   string
		dst *fp.Element
	}{
		{h[0][0], &p.X.A0}, {h[0][1], &p.X.A1},
		{h[1][0], &p.Y.A0}, {h[1][1], &p.Y.A1},
	} {
		e, err := stringToFp(c.s)
		if err != nil {
			return nil, err
		}
		*c.dst = e
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, fmt.Errorf("G2 point is not in the subgroup")
	}
	return p, nil
}

// ParsePublicSignals converts decimal or hex public signals into scalar field
// elements.
func ParsePublicSignals(publicSignals []string) ([]fr.Element, error) {
	publicInputs := make([]fr.Element, len(publicSignals))
	for i, s := range publicSignals {
		bi, err := stringToBigInt(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public input %d: %w", i, err)
		}
		if bi.Sign() < 0 || bi.Cmp(fr.Modulus()) >= 0 {
			return nil, fmt.Errorf("public input %d is not in the scalar field", i)
		}
		publicInputs[i].SetBigInt(bi)
	}
	return publicInputs, nil
}

// ConvertProof converts a snarkjs proof into a gnark proof.
func ConvertProof(p *Proof) (*groth16_bn254.Proof, error) {
	ar, err := stringToG1(p.PiA)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pi_a: %w", err)
	}
	krs, err := stringToG1(p.PiC)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pi_c: %w", err)
	}
	bs, err := stringToG2(p.PiB)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pi_b: %w", err)
	}
	return &groth16_bn254.Proof{Ar: *ar, Krs: *krs, Bs: *bs}, nil
}

// ConvertVerificationKey converts a snarkjs verification key into a gnark
// verifying key, ready for verification.
func ConvertVerificationKey(k *VerificationKey) (*groth16_bn254.VerifyingKey, error) {
	alpha, err := stringToG1(k.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vk_alpha_1: %w", err)
	}
	vk := &groth16_bn254.VerifyingKey{}
	vk.G1.Alpha = *alpha
	for _, g2 := range []struct {
		name string
		src  [][]string
		dst  *curve.G2Affine
	}{
		{"vk_beta_2", k.VkBeta2, &vk.G2.Beta},
		{"vk_gamma_2", k.VkGamma2, &vk.G2.Gamma},
		{"vk_delta_2", k.VkDelta2, &vk.G2.Delta},
	} {
		p, err := stringToG2(g2.src)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", g2.name, err)
		}
		*g2.dst = *p
	}
	vk.G1.K = make([]curve.G1Affine, len(k.IC))
	for i, ic := range k.IC {
		p, err := stringToG1(ic)
		if err != nil {
			return nil, fmt.Errorf("failed to convert IC[%d]: %w", i, err)
		}
		vk.G1.K[i] = *p
	}
	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("failed to precompute verification key: %w", err)
	}
	return vk, nil
}
