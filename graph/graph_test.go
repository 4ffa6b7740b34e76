package graph

import (
	"errors"
	"math/big"
	"sync"
	"testing"
)

func TestEvaluateArithmetic(t *testing.T) {
	g := New()
	x := g.Input("x", 17)
	y := g.Input("y", -5)
	sum := g.Add(x, y)
	diff := g.Sub(x, y)
	prod := g.Mul(x, y)
	quo := g.QuoConst(x, 5)
	negQuo := g.QuoConst(y, 2)
	lt := g.Less(y, x)
	gt := g.Greater(y, x)
	eqLess := g.Less(x, x)
	g.Output(sum)

	vals, err := g.Evaluate()
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	tests := []struct {
		id   ID
		want int64
	}{
		{sum, 12},
		{diff, 22},
		{prod, -85},
		{quo, 3},
		{negQuo, -3}, // floor(-5/2)
		{lt, 1},
		{gt, 0},
		{eqLess, 0},
	}
	for _, tc := range tests {
		if got := vals.Get(tc.id); got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Errorf("node %d = %s, want %d", tc.id, got, tc.want)
		}
	}
	if vals.Get(ID(len(vals))) != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestNodesAreOrdered(t *testing.T) {
	g := New()
	a := g.Input("a", 1)
	b := g.AddConst(a, 2)
	g.Output(b)
	g.Output(b)

	for i, n := range g.Nodes() {
		if int(n.ID) != i {
			t.Fatalf("node %d has id %d", i, n.ID)
		}
		if n.Op.Binary() && (n.Args[0] >= n.ID || n.Args[1] >= n.ID) {
			t.Errorf("node %d references a later node: %v", n.ID, n.Args)
		}
	}
	if got := g.Outputs(); len(got) != 1 || got[0] != b {
		t.Errorf("outputs = %v, want [%d]", got, b)
	}
	if got := g.Inputs(); len(got) != 1 || got[0] != a {
		t.Errorf("inputs = %v, want [%d]", got, a)
	}
	if n, ok := g.Node(a); !ok || n.Label != "a" || n.Op != OpInput {
		t.Errorf("unexpected input node %+v", n)
	}
}

func TestForwardReferenceRejected(t *testing.T) {
	g := New()
	a := g.Input("a", 1)
	g.Add(a, ID(10))
	if err := g.Err(); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("Err() = %v, want ErrInvalidOperand", err)
	}
	if _, err := g.Evaluate(); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("Evaluate() = %v, want ErrInvalidOperand", err)
	}

	g = New()
	g.Output(ID(0))
	if err := g.Err(); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("Output on empty graph: %v", err)
	}
}

func TestEvaluateErrors(t *testing.T) {
	g := New()
	g.QuoConst(g.Input("a", 10), 0)
	if _, err := g.Evaluate(); !errors.Is(err, ErrDivisor) {
		t.Errorf("division by zero: %v", err)
	}

	g = New()
	v := g.Input("v", 1<<62)
	v = g.Mul(v, v) // 2^124
	v = g.MulConst(v, 1<<4)
	if _, err := g.Evaluate(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("2^128: %v", err)
	}
}

func TestConcurrentBuilders(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x := g.Input("x", int64(i))
			for j := 0; j < 50; j++ {
				x = g.AddConst(x, 1)
			}
			g.Output(x)
		}(i)
	}
	wg.Wait()

	if err := g.Err(); err != nil {
		t.Fatalf("concurrent construction failed: %v", err)
	}
	vals, err := g.Evaluate()
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(g.Outputs()) != 8 {
		t.Fatalf("expected 8 outputs, got %d", len(g.Outputs()))
	}
	seen := map[int64]bool{}
	for _, o := range g.Outputs() {
		seen[vals.Get(o).Int64()] = true
	}
	for i := int64(0); i < 8; i++ {
		if !seen[i+50] {
			t.Errorf("missing output value %d", i+50)
		}
	}
}

func TestOpString(t *testing.T) {
	if OpQuo.String() != "quo" || Op(42).String() != "op(42)" {
		t.Errorf("unexpected op names %q %q", OpQuo, Op(42))
	}
}
