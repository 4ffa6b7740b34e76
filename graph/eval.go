package graph

import (
	"fmt"
	"math/big"
)

var (
	magnitudeBound = new(big.Int).Lsh(big.NewInt(1), MagnitudeBits)
	divisorBound   = new(big.Int).Lsh(big.NewInt(1), DivisorBits)
)

// Values holds the evaluated value of every node, indexed by ID.
type Values []*big.Int

// Get returns the value of id, or nil if id is out of range.
func (v Values) Get(id ID) *big.Int {
	if id < 0 || int(id) >= len(v) {
		return nil
	}
	return v[id]
}

// Evaluate executes the graph on the host with exact integer arithmetic. The
// semantics match the proving backend's: floor division, 0/1 comparison
// indicators, and values bounded by 2^MagnitudeBits in absolute value.
func (g *Graph) Evaluate() (Values, error) {
	if err := g.Err(); err != nil {
		return nil, err
	}
	nodes := g.Nodes()
	vals := make(Values, len(nodes))
	for _, n := range nodes {
		v, err := evalNode(n, vals)
		if err != nil {
			return nil, err
		}
		if v.CmpAbs(magnitudeBound) >= 0 {
			return nil, fmt.Errorf("%w: %s node %d has %d bits", ErrOutOfRange, n.Op, n.ID, v.BitLen())
		}
		vals[n.ID] = v
	}
	return vals, nil
}

func evalNode(n Node, vals Values) (*big.Int, error) {
	if !n.Op.Binary() {
		return new(big.Int).Set(n.Value), nil
	}
	a, b := vals[n.Args[0]], vals[n.Args[1]]
	switch n.Op {
	case OpAdd:
		return new(big.Int).Add(a, b), nil
	case OpSub:
		return new(big.Int).Sub(a, b), nil
	case OpMul:
		return new(big.Int).Mul(a, b), nil
	case OpQuo:
		if b.Sign() <= 0 || b.Cmp(divisorBound) >= 0 {
			return nil, fmt.Errorf("%w: quo node %d divides by %s", ErrDivisor, n.ID, b)
		}
		// Euclidean division equals floor division for a positive divisor.
		return new(big.Int).Div(a, b), nil
	case OpLess:
		return indicator(a.Cmp(b) < 0), nil
	case OpGreater:
		return indicator(a.Cmp(b) > 0), nil
	}
	return nil, fmt.Errorf("unknown op %s in node %d", n.Op, n.ID)
}

func indicator(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
