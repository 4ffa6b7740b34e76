// Package risk builds the protocol risk score as a computation graph.
//
// The score is
//
//	util  = (utilization / 10000) * 35
//	vol   = (volatility / 10000) * 30
//	liq   = (3 - liquidity) * 5
//	audit = (100 - audit_score) / 5
//	age   = max(0, 10 - age_days / 100)
//	total = clamp(util + vol + liq + audit + age, 5, 95)
//	risk  = total * 100 (basis points)
//
// Every component is carried in fixed point with Scale units per risk point, so
// all intermediate values are exact integers in the proving field. The
// conditional parts (floor at zero, clamp) are expressed with comparison
// indicators and arithmetic selection: the graph must not branch.
package risk

import (
	"fmt"


	"github.com/obsqra/riskproof/graph"
	"github.com/obsqra/riskproof/metrics"
)

// Scale is the number of fixed-point units per risk point.
const Scale = 10000

// Score bounds in risk points.
const (
	MinScore = 5
	MaxScore = 95
)

// Score holds the graph nodes of one protocol's score.
type Score struct {
	// Risk is the output node: the clamped score in basis points.
	Risk graph.ID
	// Total is the clamped score in fixed point (Scale units per point).
	Total graph.ID
}

// Build adds the risk score of m to g and marks the basis-point result as an
// output. The inputs are labeled "<name>.<field>". Build only appends nodes;
// two calls on the same graph produce disjoint node sets.
func Build(g *graph.Graph, name string, m metrics.ProtocolMetrics) Score {
	in := func(field string, v uint32) graph.ID {
		return g.Input(fmt.Sprintf("%s.%s", name, field), int64(v))
	}
	util := in("utilization", m.Utilization)
	vol := in("volatility", m.Volatility)
	liq := in("liquidity", m.Liquidity)
	audit := in("audit_score", m.AuditScore)
	age := in("age_days", m.AgeDays)

	// (utilization / 10000) * 35 * Scale
	utilC := g.MulConst(util, 35*Scale/metrics.MaxBasisPoints)
	// (volatility / 10000) * 30 * Scale
	volC := g.MulConst(vol, 30*Scale/metrics.MaxBasisPoints)
	// (3 - liquidity) * 5 * Scale
	liqC := g.MulConst(g.Sub(g.Constant(metrics.MaxLiquidity), liq), 5*Scale)
	// (100 - audit_score) / 5 * Scale
	auditC := g.MulConst(g.Sub(g.Constant(metrics.MaxAuditScore), audit), Scale/5)
	// (10 - age_days / 100) * Scale, floored at zero
	ageRaw := g.Sub(g.Constant(10*Scale), g.MulConst(age, Scale/100))
	ageC := FloorAtZero(g, ageRaw)

	total := g.Add(g.Add(g.Add(g.Add(utilC, volC), liqC), auditC), ageC)
	clamped := Clamp(g, total, MinScore*Scale, MaxScore*Scale)

	// total * 100 in basis points is clamped / (Scale / 100); flooring matches
	// the integer conversion of the score.
	risk := g.QuoConst(clamped, Scale/100)
	g.Output(risk)
	return Score{Risk: risk, Total: clamped}
}

// Select returns ind*ifTrue + (1-ind)*ifFalse, where ind is a 0/1 node.
func Select(g *graph.Graph, ind, ifTrue, ifFalse graph.ID) graph.ID {
	notInd := g.Sub(g.Constant(1), ind)
	return g.Add(g.Mul(ind, ifTrue), g.Mul(notInd, ifFalse))
}

// FloorAtZero returns max(x, 0).
func FloorAtZero(g *graph.Graph, x graph.ID) graph.ID {
	zero := g.Constant(0)
	return Select(g, g.Less(x, zero), zero, x)
}

// ClampMin returns max(x, lo).
func ClampMin(g *graph.Graph, x graph.ID, lo int64) graph.ID {
	k := g.Constant(lo)
	return Select(g, g.Less(x, k), k, x)
}

// ClampMax returns min(x, hi).
func ClampMax(g *graph.Graph, x graph.ID, hi int64) graph.ID {
	k := g.Constant(hi)
	return Select(g, g.Greater(x, k), k, x)
}

// Clamp returns x limited to [lo, hi] as a clamp to lo followed by a clamp to
// hi. The composition is only correct for lo < hi; Clamp panics otherwise.
func Clamp(g *graph.Graph, x graph.ID, lo, hi int64) graph.ID {
	if lo >= hi {
		panic(fmt.Sprintf("risk: clamp bounds [%d, %d] are not ordered", lo, hi))
	}
	return ClampMax(g, ClampMin(g, x, lo), hi)
}

// Reference computes the score in basis points with native integer arithmetic,
// for cross-checking graph evaluation. It must not be used on a proven path.
func Reference(m metrics.ProtocolMetrics) int64 {
	total := int64(m.Utilization)*35 + int64(m.Volatility)*30 +
		(metrics.MaxLiquidity-int64(m.Liquidity))*5*Scale +
		(metrics.MaxAuditScore-int64(m.AuditScore))*(Scale/5)
	if age := 10*Scale - int64(m.AgeDays)*(Scale/100); age > 0 {
		total += age
	}
	total = max(total, MinScore*Scale)
	total = min(total, MaxScore*Scale)
	return total / (Scale / 100)
}
