// Package envelope persists proving artifacts and assembles the output record
// of a run.
package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/obsqra/riskproof/abi"
)

// PayloadFormat identifies the encoding of the verifier payloads.
const PayloadFormat = "integrity_verifier_abi_json_v1"

// ErrIO is returned when an artifact cannot be written or read back.
var ErrIO = errors.New("artifact I/O failed")

// Fingerprint identifies proof bytes. It is an xxHash64 digest: fast and
// non-cryptographic. It detects accidental corruption of a persisted proof
// and must not be used as tamper evidence.
type Fingerprint uint64

// FingerprintOf returns the fingerprint of data.
func FingerprintOf(data []byte) Fingerprint {
	return Fingerprint(xxhash.Sum64(data))
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("0x%x", uint64(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	hex, ok := strings.CutPrefix(string(text), "0x")
	if !ok {
		return fmt.Errorf("fingerprint %q lacks 0x prefix", text)
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return fmt.Errorf("fingerprint %q: %w", text, err)
	}
	*f = Fingerprint(v)
	return nil
}

// Paths are the locations of the files a run writes.
type Paths struct {
	Proof          string
	Settings       string
	VerifierConfig string
	StarkProof     string
}

// Store writes run artifacts to Paths.
type Store struct {
	Paths Paths
}

// Artifacts describes persisted proof and settings files.
type Artifacts struct {
	ProofPath    string
	SettingsPath string
	ProofSize    int
	Fingerprint  Fingerprint
}

// Persist writes the settings, then the proof, syncing each to disk. The
// fingerprint is computed from the proof file as read back, not from memory.
func (s *Store) Persist(proof, settings io.WriterTo) (*Artifacts, error) {
	if err := writeFile(s.Paths.Settings, settings); err != nil {
		return nil, err
	}
	if err := writeFile(s.Paths.Proof, proof); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Paths.Proof)
	if err != nil {
		return nil, fmt.Errorf("%w: reading back %s: %w", ErrIO, s.Paths.Proof, err)
	}
	return &Artifacts{
		ProofPath:    s.Paths.Proof,
		SettingsPath: s.Paths.Settings,
		ProofSize:    len(data),
		Fingerprint:  FingerprintOf(data),
	}, nil
}

// WritePayloads writes the serialized verifier configuration and STARK proof.
func (s *Store) WritePayloads(p *abi.Payloads) error {
	if err := writeFile(s.Paths.VerifierConfig, bytesWriter(p.ConfigJSON)); err != nil {
		return err
	}
	return writeFile(s.Paths.StarkProof, bytesWriter(p.ProofJSON))
}

type bytesWriter []byte

func (b bytesWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b)
	return int64(n), err
}

func writeFile(path string, src io.WriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := src.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: syncing %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, path, err)
	}
	return nil
}

// Result is the output record of a run.
type Result struct {
	JediSwapRisk          uint32      `json:"jediswap_risk"`
	EkuboRisk             uint32      `json:"ekubo_risk"`
	ProofHash             Fingerprint `json:"proof_hash"`
	ProofDataPath         string      `json:"proof_data_path"`
	SettingsPath          string      `json:"settings_path"`
	VerifierConfigPath    string      `json:"verifier_config_path"`
	StarkProofPath        string      `json:"stark_proof_path"`
	VerifierConfigB64     string      `json:"verifier_config_b64"`
	StarkProofB64         string      `json:"stark_proof_b64"`
	VerifierPayloadFormat string      `json:"verifier_payload_format"`
	VerifierConfig        *abi.Value  `json:"verifier_config"`
	StarkProof            *abi.Value  `json:"stark_proof"`
	Verified              bool        `json:"verified"`
}

// Input gathers what Assemble combines.
type Input struct {
	JediSwapRisk int64
	EkuboRisk    int64
	Artifacts    *Artifacts
	Paths        Paths
	Payloads     *abi.Payloads
	Verified     bool
}

// Assemble builds the output record.
func Assemble(in Input) (*Result, error) {
	if in.Artifacts == nil || in.Payloads == nil {
		return nil, errors.New("assemble: missing artifacts or payloads")
	}
	jedi, err := basisPoints("jediswap", in.JediSwapRisk)
	if err != nil {
		return nil, err
	}
	ekubo, err := basisPoints("ekubo", in.EkuboRisk)
	if err != nil {
		return nil, err
	}
	cfg, proof := in.Payloads.Config, in.Payloads.Proof
	return &Result{
		JediSwapRisk:          jedi,
		EkuboRisk:             ekubo,
		ProofHash:             in.Artifacts.Fingerprint,
		ProofDataPath:         in.Artifacts.ProofPath,
		SettingsPath:          in.Artifacts.SettingsPath,
		VerifierConfigPath:    in.Paths.VerifierConfig,
		StarkProofPath:        in.Paths.StarkProof,
		VerifierConfigB64:     base64.StdEncoding.EncodeToString(in.Payloads.ConfigJSON),
		StarkProofB64:         base64.StdEncoding.EncodeToString(in.Payloads.ProofJSON),
		VerifierPayloadFormat: PayloadFormat,
		VerifierConfig:        &cfg,
		StarkProof:            &proof,
		Verified:              in.Verified,
	}, nil
}

func basisPoints(name string, v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("assemble: %s risk %d does not fit in uint32", name, v)
	}
	return uint32(v), nil
}
