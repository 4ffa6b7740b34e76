package abi

import "fmt"

// ZeroStarkProof returns a proof with every felt zero and every list empty.
func ZeroStarkProof() StarkProof {
	return StarkProof{}
}

// ZeroVerifierConfiguration returns a configuration with every field zero.
func ZeroVerifierConfiguration() VerifierConfiguration {
	return VerifierConfiguration{}
}

// VerifierNames names a verifier variant, for instance "recursive",
// "keccak_160_lsb", "stone6" and "strict".
type VerifierNames struct {
	Layout             string
	Hasher             string
	StoneVersion       string
	MemoryVerification string
}

// Configuration encodes the names as short strings. An empty name encodes
// as zero, so the zero VerifierNames yields ZeroVerifierConfiguration.
func (n VerifierNames) Configuration() (VerifierConfiguration, error) {
	var cfg VerifierConfiguration
	for _, f := range []struct {
		name string
		val  string
		dst  *Felt
	}{
		{"layout", n.Layout, &cfg.Layout},
		{"hasher", n.Hasher, &cfg.Hasher},
		{"stone_version", n.StoneVersion, &cfg.StoneVersion},
		{"memory_verification", n.MemoryVerification, &cfg.MemoryVerification},
	} {
		felt, err := FeltFromShortString(f.val)
		if err != nil {
			return VerifierConfiguration{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = felt
	}
	return cfg, nil
}

// Payloads holds the serialized verifier inputs.
type Payloads struct {
	Config     Value
	Proof      Value
	ConfigJSON []byte
	ProofJSON  []byte
}

// Bridge produces the verifier configuration and STARK proof payloads. The
// STARK proof is the zero placeholder: a Groth16 proof has no Integrity
// representation.
func Bridge(names VerifierNames) (*Payloads, error) {
	cfg, err := names.Configuration()
	if err != nil {
		return nil, err
	}
	cfgVal, err := Encode(cfg)
	if err != nil {
		return nil, err
	}
	proofVal, err := Encode(ZeroStarkProof())
	if err != nil {
		return nil, err
	}
	cfgJSON, err := cfgVal.MarshalJSON()
	if err != nil {
		return nil, err
	}
	proofJSON, err := proofVal.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &Payloads{Config: cfgVal, Proof: proofVal, ConfigJSON: cfgJSON, ProofJSON: proofJSON}, nil
}
