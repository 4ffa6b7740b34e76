// Package config holds the riskproof configuration, loaded from an optional
// YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/obsqra/riskproof/abi"
	"github.com/obsqra/riskproof/envelope"
)

// Config is the run configuration.
type Config struct {
	Paths    Paths    `yaml:"paths"`
	Verifier Verifier `yaml:"verifier"`
	// Verify checks the proof after writing it. A failed check is reported in
	// the output, never as an error.
	Verify bool `yaml:"verify"`
	// SnarkjsDir, when set, receives a snarkjs export of the proof.
	SnarkjsDir string `yaml:"snarkjs_dir"`
	// Strict rejects metrics outside their documented domains.
	Strict   bool   `yaml:"strict"`
	LogLevel string `yaml:"log_level"`
}

// Paths are the artifact locations.
type Paths struct {
	Proof          string `yaml:"proof"`
	Settings       string `yaml:"settings"`
	VerifierConfig string `yaml:"verifier_config"`
	StarkProof     string `yaml:"stark_proof"`
}

// Verifier names the Integrity verifier variant. Empty names produce the
// zero configuration.
type Verifier struct {
	Layout             string `yaml:"layout"`
	Hasher             string `yaml:"hasher"`
	StoneVersion       string `yaml:"stone_version"`
	MemoryVerification string `yaml:"memory_verification"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Proof:          "/tmp/risk_proof.bin",
			Settings:       "/tmp/risk_settings.bin",
			VerifierConfig: "/tmp/risk_verifier_config.json",
			StarkProof:     "/tmp/risk_stark_proof.json",
		},
		Verify:   true,
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path yields the defaults; a
// named file must exist and may only carry known keys.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for values that would fail late.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]string)
	for _, p := range []struct{ key, val string }{
		{"paths.proof", c.Paths.Proof},
		{"paths.settings", c.Paths.Settings},
		{"paths.verifier_config", c.Paths.VerifierConfig},
		{"paths.stark_proof", c.Paths.StarkProof},
	} {
		if p.val == "" {
			errs = append(errs, fmt.Errorf("%s is empty", p.key))
			continue
		}
		if other, dup := seen[p.val]; dup {
			errs = append(errs, fmt.Errorf("%s and %s both point to %s", other, p.key, p.val))
		}
		seen[p.val] = p.key
	}
	if _, err := c.Verifier.Names().Configuration(); err != nil {
		errs = append(errs, fmt.Errorf("verifier.%w", err))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Names converts v for the ABI bridge.
func (v Verifier) Names() abi.VerifierNames {
	return abi.VerifierNames{
		Layout:             v.Layout,
		Hasher:             v.Hasher,
		StoneVersion:       v.StoneVersion,
		MemoryVerification: v.MemoryVerification,
	}
}

// Store returns the artifact store for the configured paths.
func (p Paths) Store() *envelope.Store {
	return &envelope.Store{Paths: envelope.Paths{
		Proof:          p.Proof,
		Settings:       p.Settings,
		VerifierConfig: p.VerifierConfig,
		StarkProof:     p.StarkProof,
	}}
}
