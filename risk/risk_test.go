package risk

import (
	"testing"

	"github.com/obsqra/riskproof/graph"
	"github.com/obsqra/riskproof/metrics"
)

// score evaluates a freshly built graph for m and returns the risk output and
// the clamped fixed-point total.
func score(t *testing.T, m metrics.ProtocolMetrics) (int64, int64) {
	t.Helper()
	g := graph.New()
	s := Build(g, "p", m)
	vals, err := g.Evaluate()
	if err != nil {
		t.Fatalf("evaluate %+v: %v", m, err)
	}
	return vals.Get(s.Risk).Int64(), vals.Get(s.Total).Int64()
}

// unclamped evaluates the raw component sum in fixed point.
func unclamped(t *testing.T, m metrics.ProtocolMetrics) int64 {
	t.Helper()
	g := graph.New()
	Build(g, "p", m)
	vals, err := g.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	// The sum is the left operand of the first comparison against MinScore.
	for _, n := range g.Nodes() {
		if n.Op == graph.OpLess {
			if c, _ := g.Node(n.Args[1]); c.Op == graph.OpConst && c.Value.Int64() == MinScore*Scale {
				return vals.Get(n.Args[0]).Int64()
			}
		}
	}
	t.Fatal("clamp comparison not found")
	return 0
}

func TestScenario(t *testing.T) {
	m := metrics.ProtocolMetrics{Utilization: 5000, Volatility: 5000, Liquidity: 2, AuditScore: 80, AgeDays: 200}
	risk, total := score(t, m)
	if risk != 4950 {
		t.Errorf("risk = %d, want 4950", risk)
	}
	if total != 495000 {
		t.Errorf("total = %d, want 495000 (49.5 points)", total)
	}
}

func TestLiquidityShift(t *testing.T) {
	base := metrics.ProtocolMetrics{Utilization: 4000, Volatility: 3000, AuditScore: 70, AgeDays: 300}
	worst, best := base, base
	worst.Liquidity = 1
	best.Liquidity = 3
	rw, _ := score(t, worst)
	rb, _ := score(t, best)
	if rw-rb != 1000 {
		t.Errorf("liquidity 1 vs 3: %d - %d = %d, want 1000", rw, rb, rw-rb)
	}
}

func TestRangeAndReference(t *testing.T) {
	for _, u := range []uint32{0, 1, 3333, 10000} {
		for _, v := range []uint32{0, 7, 5000, 10000} {
			for l := uint32(1); l <= 3; l++ {
				for _, a := range []uint32{0, 33, 100} {
					for _, d := range []uint32{0, 1, 999, 1000, 5000} {
						m := metrics.ProtocolMetrics{Utilization: u, Volatility: v, Liquidity: l, AuditScore: a, AgeDays: d}
						risk, _ := score(t, m)
						if risk < MinScore*100 || risk > MaxScore*100 {
							t.Fatalf("%+v: risk %d outside [500, 9500]", m, risk)
						}
						if want := Reference(m); risk != want {
							t.Fatalf("%+v: risk %d, reference %d", m, risk, want)
						}
					}
				}
			}
		}
	}
}

func TestMonotonicity(t *testing.T) {
	base := metrics.ProtocolMetrics{Utilization: 2000, Volatility: 2000, Liquidity: 2, AuditScore: 50, AgeDays: 400}

	prev := unclamped(t, base)
	for u := uint32(2500); u <= 10000; u += 2500 {
		m := base
		m.Utilization = u
		cur := unclamped(t, m)
		if cur <= prev {
			t.Errorf("utilization %d: total %d not above %d", u, cur, prev)
		}
		prev = cur
	}

	prev = unclamped(t, base)
	for a := uint32(60); a <= 100; a += 10 {
		m := base
		m.AuditScore = a
		cur := unclamped(t, m)
		if cur >= prev {
			t.Errorf("audit_score %d: total %d not below %d", a, cur, prev)
		}
		prev = cur
	}

	prev = unclamped(t, base)
	m := base
	m.Liquidity = 3
	if cur := unclamped(t, m); cur >= prev {
		t.Errorf("liquidity 3: total %d not below %d", cur, prev)
	}
}

func TestAgeFloor(t *testing.T) {
	base := metrics.ProtocolMetrics{Utilization: 5000, Volatility: 5000, Liquidity: 2, AuditScore: 80}
	withoutAge := unclamped(t, base) - 10*Scale // age 0 contributes the full penalty
	for _, d := range []uint32{1000, 1001, 2500, 1 << 31} {
		m := base
		m.AgeDays = d
		if got := unclamped(t, m); got != withoutAge {
			t.Errorf("age_days %d: total %d, want %d (zero penalty)", d, got, withoutAge)
		}
	}
	m := base
	m.AgeDays = 999
	if got := unclamped(t, m); got != withoutAge+100 {
		t.Errorf("age_days 999: total %d, want %d", got, withoutAge+100)
	}
}

func TestClampBoundaries(t *testing.T) {
	low := metrics.ProtocolMetrics{Utilization: 0, Volatility: 0, Liquidity: 3, AuditScore: 100, AgeDays: 5000}
	if u := unclamped(t, low); u >= MinScore*Scale {
		t.Fatalf("low fixture not below the minimum: %d", u)
	}
	if risk, _ := score(t, low); risk != 500 {
		t.Errorf("low risk = %d, want 500", risk)
	}

	// Out-of-domain metrics still produce a number; here they push the sum past 95.
	high := metrics.ProtocolMetrics{Utilization: 10000, Volatility: 10000, Liquidity: 0, AuditScore: 0, AgeDays: 0}
	if u := unclamped(t, high); u <= MaxScore*Scale {
		t.Fatalf("high fixture not above the maximum: %d", u)
	}
	if risk, _ := score(t, high); risk != 9500 {
		t.Errorf("high risk = %d, want 9500", risk)
	}
}

func TestBuildIsDisjoint(t *testing.T) {
	g := graph.New()
	a := Build(g, "jediswap", metrics.ProtocolMetrics{Utilization: 1, Liquidity: 1})
	mid := graph.ID(g.Len())
	b := Build(g, "ekubo", metrics.ProtocolMetrics{Utilization: 2, Liquidity: 2})
	if a.Risk >= mid || b.Risk < mid {
		t.Fatalf("outputs not in separate subgraphs: %d, %d (split at %d)", a.Risk, b.Risk, mid)
	}
	for _, n := range g.Nodes()[mid:] {
		if n.Op.Binary() && (n.Args[0] < mid || n.Args[1] < mid) {
			t.Errorf("node %d of the second subgraph references the first: %v", n.ID, n.Args)
		}
	}
	if got := g.Outputs(); len(got) != 2 || got[0] != a.Risk || got[1] != b.Risk {
		t.Errorf("outputs = %v", got)
	}
	if in := g.Inputs(); len(in) != 10 {
		t.Errorf("expected 10 inputs, got %d", len(in))
	}
}

func TestClampPanicsOnUnorderedBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	g := graph.New()
	Clamp(g, g.Input("x", 1), 10, 10)
}
