// Package graph implements the computation graph the risk score circuit is
// built on: a DAG of input scalars, constants, elementwise arithmetic and
// comparison nodes. A graph carries no control flow, so it can be replayed
// verbatim by an arithmetic proving backend.
package graph

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var (
	// ErrInvalidOperand is recorded when a node references an ID that was not
	// allocated before it.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrDivisor is returned by Evaluate when a division has a non-positive or
	// oversized divisor.
	ErrDivisor = errors.New("invalid divisor")
	// ErrOutOfRange is returned by Evaluate when a value leaves the signed range
	// the proving backend can compare.
	ErrOutOfRange = errors.New("value out of provable range")
)

// MagnitudeBits bounds every node value: |v| < 2^MagnitudeBits.
const MagnitudeBits = 128

// DivisorBits bounds the divisor of OpQuo: 0 < d < 2^DivisorBits.
const DivisorBits = 64

// Op is the kind of a node.
type Op uint8

const (
	OpInput Op = iota
	OpConst
	OpAdd
	OpSub
	OpMul
	// OpQuo is floor division; the divisor must lie in [1, 2^DivisorBits).
	OpQuo
	// OpLess yields 1 when the first operand is strictly smaller, else 0.
	OpLess
	// OpGreater yields 1 when the first operand is strictly greater, else 0.
	OpGreater
)

var opNames = [...]string{"input", "const", "add", "sub", "mul", "quo", "less", "greater"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Binary reports whether the op takes two operands.
func (o Op) Binary() bool { return o >= OpAdd }

// ID identifies a node; it is the node's creation index.
type ID int

// Node is one vertex of the graph.
type Node struct {
	ID    ID
	Op    Op
	Args  [2]ID    // operands, only for binary ops
	Value *big.Int // literal, only for OpInput and OpConst
	Label string   // input name, empty otherwise
}

// Graph is a computation graph. Node allocation is serialized, so several
// builders may extend one graph concurrently; each node still only refers to
// nodes created before it.
type Graph struct {
	mu      sync.Mutex
	nodes   []Node
	inputs  []ID
	outputs []ID
	err     error
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// Input adds an input scalar bound to v.
func (g *Graph) Input(label string, v int64) ID {
	return g.push(Node{Op: OpInput, Value: big.NewInt(v), Label: label})
}

// Constant adds a constant scalar.
func (g *Graph) Constant(v int64) ID {
	return g.push(Node{Op: OpConst, Value: big.NewInt(v)})
}

// Add returns a + b.
func (g *Graph) Add(a, b ID) ID { return g.binary(OpAdd, a, b) }

// Sub returns a - b.
func (g *Graph) Sub(a, b ID) ID { return g.binary(OpSub, a, b) }

// Mul returns a * b.
func (g *Graph) Mul(a, b ID) ID { return g.binary(OpMul, a, b) }

// Quo returns floor(a / b).
func (g *Graph) Quo(a, b ID) ID { return g.binary(OpQuo, a, b) }

// Less returns the indicator a < b.
func (g *Graph) Less(a, b ID) ID { return g.binary(OpLess, a, b) }

// Greater returns the indicator a > b.
func (g *Graph) Greater(a, b ID) ID { return g.binary(OpGreater, a, b) }

// AddConst returns a + k.
func (g *Graph) AddConst(a ID, k int64) ID { return g.Add(a, g.Constant(k)) }

// MulConst returns a * k.
func (g *Graph) MulConst(a ID, k int64) ID { return g.Mul(a, g.Constant(k)) }

// QuoConst returns floor(a / k).
func (g *Graph) QuoConst(a ID, k int64) ID { return g.Quo(a, g.Constant(k)) }

// Output marks id for retrieval after execution.
func (g *Graph) Output(id ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.valid(id) {
		g.fail(fmt.Errorf("%w: output %d", ErrInvalidOperand, id))
		return
	}
	for _, o := range g.outputs {
		if o == id {
			return
		}
	}
	g.outputs = append(g.outputs, id)
}

func (g *Graph) binary(op Op, a, b ID) ID {
	return g.push(Node{Op: op, Args: [2]ID{a, b}})
}

func (g *Graph) push(n Node) ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	n.ID = ID(len(g.nodes))
	if n.Op.Binary() && (!g.valid(n.Args[0]) || !g.valid(n.Args[1])) {
		g.fail(fmt.Errorf("%w: %s node %d references %d, %d", ErrInvalidOperand, n.Op, n.ID, n.Args[0], n.Args[1]))
	}
	g.nodes = append(g.nodes, n)
	if n.Op == OpInput {
		g.inputs = append(g.inputs, n.ID)
	}
	return n.ID
}

// valid reports whether id was allocated; the caller holds g.mu.
func (g *Graph) valid(id ID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// Err returns the first construction error, if any.
func (g *Graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Nodes returns a copy of the nodes in creation order.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Node(nil), g.nodes...)
}

// Node returns the node with the given id.
func (g *Graph) Node(id ID) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.valid(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Inputs returns the input node IDs in creation order.
func (g *Graph) Inputs() []ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ID(nil), g.inputs...)
}

// Outputs returns the output node IDs in the order they were marked.
func (g *Graph) Outputs() []ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ID(nil), g.outputs...)
}
