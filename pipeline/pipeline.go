// Package pipeline runs a risk scoring job end to end: it builds the score
// graph for both protocols, proves it, persists the artifacts and assembles
// the output record.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/obsqra/riskproof/abi"
	"github.com/obsqra/riskproof/config"
	"github.com/obsqra/riskproof/envelope"
	"github.com/obsqra/riskproof/graph"
	"github.com/obsqra/riskproof/metrics"
	"github.com/obsqra/riskproof/prover"
	"github.com/obsqra/riskproof/risk"
	"github.com/obsqra/riskproof/snarkjs"
)

// Runner executes scoring jobs. Steps run strictly in sequence.
type Runner struct {
	Config *config.Config
	Logger zerolog.Logger
}

// Run scores in and returns the output record. Every failure is fatal except
// a failed verification, which yields Verified == false.
func (r *Runner) Run(in *metrics.RiskScoringInput) (*envelope.Result, error) {
	start := time.Now()
	log := r.Logger

	if r.Config.Strict {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", metrics.ErrInputParse, err)
		}
	}

	g := graph.New()
	jedi := risk.Build(g, "jediswap", in.JediSwap)
	ekubo := risk.Build(g, "ekubo", in.Ekubo)
	log.Debug().Int("nodes", g.Len()).Int("inputs", len(g.Inputs())).Msg("graph built")

	session, err := prover.Compile(g)
	if err != nil {
		return nil, err
	}
	settings, err := session.Settings()
	if err != nil {
		return nil, err
	}
	log.Info().Int("constraints", session.Constraints()).Msg("circuit compiled")

	trace, err := session.Trace(settings)
	if err != nil {
		return nil, err
	}
	jediRisk, err := trace.Value(jedi.Risk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", prover.ErrTraceGeneration, err)
	}
	ekuboRisk, err := trace.Value(ekubo.Risk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", prover.ErrTraceGeneration, err)
	}
	log.Info().
		Int64("jediswap_risk", jediRisk.Int64()).
		Int64("ekubo_risk", ekuboRisk.Int64()).
		Msg("scores computed")

	proof, err := prover.Prove(trace, settings)
	if err != nil {
		return nil, err
	}

	store := r.Config.Paths.Store()
	artifacts, err := store.Persist(proof, settings)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("proof", artifacts.ProofPath).
		Str("settings", artifacts.SettingsPath).
		Int("proof_bytes", artifacts.ProofSize).
		Stringer("proof_hash", artifacts.Fingerprint).
		Msg("artifacts persisted")

	verified := false
	if r.Config.Verify {
		verified, err = r.verify(artifacts)
		if err != nil {
			return nil, err
		}
	}

	if r.Config.SnarkjsDir != "" {
		r.exportSnarkjs(proof, settings)
	}

	payloads, err := abi.Bridge(r.Config.Verifier.Names())
	if err != nil {
		return nil, err
	}
	if err := store.WritePayloads(payloads); err != nil {
		return nil, err
	}

	res, err := envelope.Assemble(envelope.Input{
		JediSwapRisk: jediRisk.Int64(),
		EkuboRisk:    ekuboRisk.Int64(),
		Artifacts:    artifacts,
		Paths:        store.Paths,
		Payloads:     payloads,
		Verified:     verified,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Bool("verified", verified).Dur("took", time.Since(start)).Msg("run complete")
	return res, nil
}

// verify checks the persisted proof against the persisted settings. Only a
// failure to read the artifacts is returned as an error.
func (r *Runner) verify(a *envelope.Artifacts) (bool, error) {
	proof, err := prover.LoadProof(a.ProofPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", envelope.ErrIO, err)
	}
	settings, err := prover.LoadSettings(a.SettingsPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", envelope.ErrIO, err)
	}
	if err := prover.Verify(proof, settings); err != nil {
		if errors.Is(err, prover.ErrVerification) {
			r.Logger.Warn().Err(err).Msg("proof did not verify")
			return false, nil
		}
		return false, err
	}
	r.Logger.Info().Msg("proof verified")
	return true, nil
}

func (r *Runner) exportSnarkjs(proof *prover.Proof, settings *prover.Settings) {
	log := r.Logger.With().Str("dir", r.Config.SnarkjsDir).Logger()
	bundle, err := snarkjs.Export(proof, settings)
	if err != nil {
		log.Warn().Err(err).Msg("snarkjs export skipped")
		return
	}
	if err := bundle.WriteDir(r.Config.SnarkjsDir); err != nil {
		log.Warn().Err(err).Msg("snarkjs export failed")
		return
	}
	if err := bundle.VerifyGoSnark(); err != nil {
		log.Warn().Err(err).Msg("snarkjs bundle rejected by go-snark")
		return
	}
	log.Info().Msg("snarkjs bundle written")
}
