// Package prover proves computation graphs with Groth16 over BN254.
//
// A graph is replayed as a GraphCircuit and compiled to R1CS. The lifecycle is
// Compile → Settings → Trace → Prove, with Verify usable on any proof and
// settings pair, including ones read back from disk.
package prover

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"

	"github.com/obsqra/riskproof/graph"
)

var (
	ErrCircuitCompilation = errors.New("circuit compilation failed")
	ErrTraceGeneration    = errors.New("trace generation failed")
	ErrProving            = errors.New("proving failed")
	ErrVerification       = errors.New("proof verification failed")
)

// Curve is the curve every artifact of this package is built on.
const Curve = ecc.BN254

// Session is a compiled graph.
type Session struct {
	graph   *graph.Graph
	circuit *GraphCircuit
	ccs     constraint.ConstraintSystem
}

// Settings holds the constraint system and the Groth16 keys derived from it.
type Settings struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// Trace is a satisfied assignment of a session's circuit.
type Trace struct {
	values  graph.Values
	outputs []graph.ID
	full    witness.Witness
	public  witness.Witness
}

// Proof is a Groth16 proof together with the public witness it was produced
// for. The public witness lists the graph outputs in Outputs order.
type Proof struct {
	proof  groth16.Proof
	public witness.Witness
}

// Compile replays g into a circuit and compiles it.
func Compile(g *graph.Graph) (*Session, error) {
	circuit, err := NewGraphCircuit(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCircuitCompilation, err)
	}
	log := logger.Logger()
	start := time.Now()
	ccs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCircuitCompilation, err)
	}
	log.Debug().
		Int("nodes", g.Len()).
		Int("constraints", ccs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("graph compiled")
	return &Session{graph: g, circuit: circuit, ccs: ccs}, nil
}

// Constraints returns the number of constraints of the compiled circuit.
func (s *Session) Constraints() int {
	return s.ccs.GetNbConstraints()
}

// Settings runs the Groth16 setup for the session's constraint system.
func (s *Session) Settings() (*Settings, error) {
	start := time.Now()
	pk, vk, err := groth16.Setup(s.ccs)
	if err != nil {
		return nil, fmt.Errorf("%w: setup: %w", ErrCircuitCompilation, err)
	}
	log := logger.Logger()
	log.Debug().Dur("took", time.Since(start)).Msg("keys generated")
	return &Settings{CS: s.ccs, PK: pk, VK: vk}, nil
}

// Trace evaluates the graph and checks the resulting witness against the
// constraint system of st.
func (s *Session) Trace(st *Settings) (*Trace, error) {
	vals, err := s.graph.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceGeneration, err)
	}
	full, err := frontend.NewWitness(s.circuit.Assign(vals), Curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: witness: %w", ErrTraceGeneration, err)
	}
	public, err := full.Public()
	if err != nil {
		return nil, fmt.Errorf("%w: public witness: %w", ErrTraceGeneration, err)
	}
	if err := st.CS.IsSolved(full); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceGeneration, err)
	}
	return &Trace{values: vals, outputs: s.circuit.outputs, full: full, public: public}, nil
}

// Outputs returns the output node IDs in the order they appear in the public
// witness.
func (t *Trace) Outputs() []graph.ID {
	return append([]graph.ID(nil), t.outputs...)
}

// Value returns the value of the output node id.
func (t *Trace) Value(id graph.ID) (*big.Int, error) {
	for _, o := range t.outputs {
		if o == id {
			return new(big.Int).Set(t.values.Get(id)), nil
		}
	}
	return nil, fmt.Errorf("node %d is not an output", id)
}

// Prove produces a proof for tr.
func Prove(tr *Trace, st *Settings) (*Proof, error) {
	start := time.Now()
	proof, err := groth16.Prove(st.CS, st.PK, tr.full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProving, err)
	}
	log := logger.Logger()
	log.Debug().Dur("took", time.Since(start)).Msg("proof generated")
	return &Proof{proof: proof, public: tr.public}, nil
}

// Verify checks p against the verifying key of st.
func Verify(p *Proof, st *Settings) error {
	if err := groth16.Verify(p.proof, st.VK, p.public); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}

// Groth16 returns the underlying proof.
func (p *Proof) Groth16() groth16.Proof { return p.proof }

// Public returns the public witness.
func (p *Proof) Public() witness.Witness { return p.public }

// PublicValues returns the public inputs as integers in [0, r).
func (p *Proof) PublicValues() ([]*big.Int, error) {
	vec, ok := p.public.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("expected public witness vector of type fr.Vector, got %T", p.public.Vector())
	}
	out := make([]*big.Int, len(vec))
	for i := range vec {
		out[i] = vec[i].BigInt(new(big.Int))
	}
	return out, nil
}
