package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"

	"github.com/obsqra/riskproof/graph"
)

func init() {
	solver.RegisterHint(quoRemHint)
}

var (
	// compareBias shifts signed values into [0, 2^(MagnitudeBits+1)) so that
	// api.Cmp, which orders canonical field representatives, orders them as
	// signed integers.
	compareBias = new(big.Int).Lsh(big.NewInt(1), graph.MagnitudeBits)
	// quotientBound is the largest biased quotient: |q| <= 2^MagnitudeBits.
	quotientBound = new(big.Int).Lsh(big.NewInt(1), graph.MagnitudeBits+1)
	maxDivisor    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), graph.DivisorBits), big.NewInt(1))
)

// GraphCircuit replays a computation graph as gnark constraints. Graph inputs
// are secret, graph outputs are public and asserted equal to the replayed
// values, so a proof certifies every output at once.
type GraphCircuit struct {
	Inputs  []frontend.Variable `gnark:",secret"`
	Outputs []frontend.Variable `gnark:",public"`

	nodes   []graph.Node `gnark:"-"`
	outputs []graph.ID   `gnark:"-"`
}

// NewGraphCircuit returns a placeholder circuit shaped after g.
func NewGraphCircuit(g *graph.Graph) (*GraphCircuit, error) {
	if err := g.Err(); err != nil {
		return nil, err
	}
	nodes := g.Nodes()
	for _, n := range nodes {
		if n.Op != graph.OpQuo {
			continue
		}
		if d := nodes[n.Args[1]]; d.Op == graph.OpConst && (d.Value.Sign() <= 0 || d.Value.Cmp(maxDivisor) > 0) {
			return nil, fmt.Errorf("%w: quo node %d divides by constant %s", graph.ErrDivisor, n.ID, d.Value)
		}
	}
	outputs := g.Outputs()
	if len(outputs) == 0 {
		return nil, fmt.Errorf("graph has no outputs")
	}
	return &GraphCircuit{
		Inputs:  make([]frontend.Variable, len(g.Inputs())),
		Outputs: make([]frontend.Variable, len(outputs)),
		nodes:   nodes,
		outputs: outputs,
	}, nil
}

// Assign returns an assignment of c carrying the evaluated graph values.
func (c *GraphCircuit) Assign(vals graph.Values) *GraphCircuit {
	a := &GraphCircuit{
		Inputs:  make([]frontend.Variable, 0, len(c.Inputs)),
		Outputs: make([]frontend.Variable, len(c.outputs)),
	}
	for _, n := range c.nodes {
		if n.Op == graph.OpInput {
			a.Inputs = append(a.Inputs, fieldValue(vals.Get(n.ID)))
		}
	}
	for i, id := range c.outputs {
		a.Outputs[i] = fieldValue(vals.Get(id))
	}
	return a
}

// fieldValue maps a signed graph value to its canonical field representative.
func fieldValue(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, Curve.ScalarField())
}

// Define implements frontend.Circuit.
func (c *GraphCircuit) Define(api frontend.API) error {
	vals := make([]frontend.Variable, len(c.nodes))
	nextInput := 0
	for _, n := range c.nodes {
		switch n.Op {
		case graph.OpInput:
			vals[n.ID] = c.Inputs[nextInput]
			nextInput++
			continue
		case graph.OpConst:
			vals[n.ID] = new(big.Int).Set(n.Value)
			continue
		}
		a, b := vals[n.Args[0]], vals[n.Args[1]]
		switch n.Op {
		case graph.OpAdd:
			vals[n.ID] = api.Add(a, b)
		case graph.OpSub:
			vals[n.ID] = api.Sub(a, b)
		case graph.OpMul:
			vals[n.ID] = api.Mul(a, b)
		case graph.OpQuo:
			q, err := floorDiv(api, a, b, c.nodes[n.Args[1]].Op == graph.OpConst)
			if err != nil {
				return fmt.Errorf("quo node %d: %w", n.ID, err)
			}
			vals[n.ID] = q
		case graph.OpLess:
			vals[n.ID] = isNegative(api, signedCmp(api, a, b))
		case graph.OpGreater:
			vals[n.ID] = isNegative(api, signedCmp(api, b, a))
		default:
			return fmt.Errorf("unsupported op %s in node %d", n.Op, n.ID)
		}
	}
	for i, id := range c.outputs {
		api.AssertIsEqual(c.Outputs[i], vals[id])
	}
	return nil
}

// signedCmp compares a and b as signed integers of at most MagnitudeBits bits.
func signedCmp(api frontend.API, a, b frontend.Variable) frontend.Variable {
	return api.Cmp(api.Add(a, compareBias), api.Add(b, compareBias))
}

// isNegative turns a Cmp result into the 0/1 indicator "result == -1".
func isNegative(api frontend.API, cmp frontend.Variable) frontend.Variable {
	return api.IsZero(api.Add(cmp, 1))
}

// floorDiv returns floor(a / b). The quotient and remainder come from a hint
// and are pinned by q*b + r == a, 0 <= r < b and |q| <= 2^MagnitudeBits. With
// b < 2^DivisorBits none of these can wrap around the field modulus.
func floorDiv(api frontend.API, a, b frontend.Variable, constDivisor bool) (frontend.Variable, error) {
	res, err := api.Compiler().NewHint(quoRemHint, 2, a, b)
	if err != nil {
		return nil, err
	}
	q, r := res[0], res[1]
	if !constDivisor {
		api.AssertIsDifferent(b, 0)
		api.AssertIsLessOrEqual(b, maxDivisor)
	}
	api.AssertIsEqual(api.Add(api.Mul(q, b), r), a)
	api.AssertIsLessOrEqual(r, api.Sub(b, 1))
	api.AssertIsLessOrEqual(api.Add(q, compareBias), quotientBound)
	return q, nil
}

// quoRemHint computes the floor quotient and remainder of inputs[0] by
// inputs[1], reading inputs[0] as a signed value.
func quoRemHint(field *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 2 || len(outputs) != 2 {
		return fmt.Errorf("quoRemHint: expected 2 inputs and 2 outputs, got %d and %d", len(inputs), len(outputs))
	}
	if inputs[1].Sign() == 0 {
		return fmt.Errorf("quoRemHint: division by zero")
	}
	a := new(big.Int).Mod(inputs[0], field)
	if a.Cmp(new(big.Int).Rsh(field, 1)) > 0 {
		a.Sub(a, field)
	}
	q, r := new(big.Int).DivMod(a, inputs[1], new(big.Int))
	outputs[0].Mod(q, field)
	outputs[1].Set(r)
	return nil
}
