package snarkjs

import (
	"errors"
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/obsqra/riskproof/prover"
)

// ErrCommitments is returned for proofs that carry Pedersen commitments,
// which snarkjs cannot represent.
var ErrCommitments = errors.New("proofs with commitments have no snarkjs representation")

// Export converts a proof and the verifying key of its settings into a
// snarkjs bundle.
func Export(p *prover.Proof, st *prover.Settings) (*Bundle, error) {
	proof, ok := p.Groth16().(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("expected a bn254 proof, got %T", p.Groth16())
	}
	vk, ok := st.VK.(*groth16_bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("expected a bn254 verifying key, got %T", st.VK)
	}
	if len(proof.Commitments) != 0 || len(vk.CommitmentKeys) != 0 {
		return nil, ErrCommitments
	}
	vec, ok := p.Public().Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("expected public witness vector of type fr.Vector, got %T", p.Public().Vector())
	}
	if len(vk.G1.K) != len(vec)+1 {
		return nil, fmt.Errorf("verifying key has %d IC points for %d public signals", len(vk.G1.K), len(vec))
	}

	alphabeta, err := computeAlphabeta12(vk.G1.Alpha, vk.G2.Beta)
	if err != nil {
		return nil, fmt.Errorf("failed to compute vk_alphabeta_12: %w", err)
	}
	ic := make([][]string, len(vk.G1.K))
	for i := range vk.G1.K {
		ic[i] = g1ToStrings(&vk.G1.K[i])
	}
	signals := make([]string, len(vec))
	for i := range vec {
		signals[i] = vec[i].BigInt(new(big.Int)).String()
	}

	return &Bundle{
		Proof: &Proof{
			PiA:      g1ToStrings(&proof.Ar),
			PiB:      g2ToStrings(&proof.Bs),
			PiC:      g1ToStrings(&proof.Krs),
			Protocol: "groth16",
			Curve:    "bn128", // snarkjs name for bn254
		},
		VerificationKey: &VerificationKey{
			Protocol:      "groth16",
			Curve:         "bn128",
			NPublic:       len(vec),
			VkAlpha1:      g1ToStrings(&vk.G1.Alpha),
			VkBeta2:       g2ToStrings(&vk.G2.Beta),
			VkGamma2:      g2ToStrings(&vk.G2.Gamma),
			VkDelta2:      g2ToStrings(&vk.G2.Delta),
			VkAlphabeta12: alphabeta,
			IC:            ic,
		},
		PublicSignals: signals,
	}, nil
}

// g1ToStrings renders p in projective form [X, Y, Z] with decimal
// coordinates; the point at infinity is [0, 1, 0].
func g1ToStrings(p *curve.G1Affine) []string {
	if p.IsInfinity() {
		return []string{"0", "1", "0"}
	}
	return []string{
		p.X.BigInt(new(big.Int)).String(),
		p.Y.BigInt(new(big.Int)).String(),
		"1",
	}
}

// g2ToStrings renders p as [[X.A0, X.A1], [Y.A0, Y.A1], [Z.A0, Z.A1]].
func g2ToStrings(p *curve.G2Affine) [][]string {
	if p.IsInfinity() {
		return [][]string{{"0", "0"}, {"1", "0"}, {"0", "0"}}
	}
	return [][]string{
		e2ToStrings(&p.X.A0, &p.X.A1),
		e2ToStrings(&p.Y.A0, &p.Y.A1),
		{"1", "0"},
	}
}

func e2ToStrings(a0, a1 *fp.Element) []string {
	return []string{a0.BigInt(new(big.Int)).String(), a1.BigInt(new(big.Int)).String()}
}

// computeAlphabeta12 computes e(alpha, beta) laid out as
//
//	[
//	  [ [C0.B0.A0, C0.B0.A1], [C0.B1.A0, C0.B1.A1], [C0.B2.A0, C0.B2.A1] ],
//	  [ [C1.B0.A0, C1.B0.A1], [C1.B1.A0, C1.B1.A1], [C1.B2.A0, C1.B2.A1] ]
//	]
func computeAlphabeta12(alpha curve.G1Affine, beta curve.G2Affine) ([][][]string, error) {
	gt, err := curve.Pair([]curve.G1Affine{alpha}, []curve.G2Affine{beta})
	if err != nil {
		return nil, err
	}
	return [][][]string{
		{
			e2ToStrings(&gt.C0.B0.A0, &gt.C0.B0.A1),
			e2ToStrings(&gt.C0.B1.A0, &gt.C0.B1.A1),
			e2ToStrings(&gt.C0.B2.A0, &gt.C0.B2.A1),
		},
		{
			e2ToStrings(&gt.C1.B0.A0, &gt.C1.B0.A1),
			e2ToStrings(&gt.C1.B1.A0, &gt.C1.B1.A1),
			e2ToStrings(&gt.C1.B2.A0, &gt.C1.B2.A1),
		},
	}, nil
}
