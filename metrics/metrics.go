// Package metrics holds the protocol metrics consumed by the risk score circuit
// and the parsing of the scoring request that carries them.
package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInputParse is returned when the scoring request is malformed or does not
// match the expected schema.
var ErrInputParse = errors.New("input parse error")

// Declared domains of the metric fields.
const (
	MaxBasisPoints = 10000
	MinLiquidity   = 1
	MaxLiquidity   = 3
	MaxAuditScore  = 100
)

// ProtocolMetrics describes one liquidity protocol instance.
type ProtocolMetrics struct {
	Utilization uint32 `json:"utilization"` // basis points, 0-10000
	Volatility  uint32 `json:"volatility"`  // basis points, 0-10000
	Liquidity   uint32 `json:"liquidity"`   // 1 (worst) to 3 (best)
	AuditScore  uint32 `json:"audit_score"` // 0-100
	AgeDays     uint32 `json:"age_days"`    // days since launch
}

// RiskScoringInput is the scoring request: one set of metrics per protocol.
type RiskScoringInput struct {
	JediSwap ProtocolMetrics `json:"jediswap_metrics"`
	Ekubo    ProtocolMetrics `json:"ekubo_metrics"`
}

// Validate checks every field against its declared domain. The circuit builder
// accepts out-of-domain metrics, so calling this is up to the caller.
func (m ProtocolMetrics) Validate() error {
	if m.Utilization > MaxBasisPoints {
		return fmt.Errorf("utilization %d exceeds %d basis points", m.Utilization, MaxBasisPoints)
	}
	if m.Volatility > MaxBasisPoints {
		return fmt.Errorf("volatility %d exceeds %d basis points", m.Volatility, MaxBasisPoints)
	}
	if m.Liquidity < MinLiquidity || m.Liquidity > MaxLiquidity {
		return fmt.Errorf("liquidity %d outside [%d,%d]", m.Liquidity, MinLiquidity, MaxLiquidity)
	}
	if m.AuditScore > MaxAuditScore {
		return fmt.Errorf("audit_score %d exceeds %d", m.AuditScore, MaxAuditScore)
	}
	return nil
}

// Validate checks both protocols' metrics.
func (in *RiskScoringInput) Validate() error {
	if err := in.JediSwap.Validate(); err != nil {
		return fmt.Errorf("jediswap_metrics: %w", err)
	}
	if err := in.Ekubo.Validate(); err != nil {
		return fmt.Errorf("ekubo_metrics: %w", err)
	}
	return nil
}

// ParseInput decodes a JSON scoring request. Unknown fields, missing protocol
// keys and trailing data are rejected.
func ParseInput(data []byte) (*RiskScoringInput, error) {
	var raw struct {
		JediSwap *ProtocolMetrics `json:"jediswap_metrics"`
		Ekubo    *ProtocolMetrics `json:"ekubo_metrics"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after request object", ErrInputParse)
	}
	if raw.JediSwap == nil {
		return nil, fmt.Errorf("%w: missing jediswap_metrics", ErrInputParse)
	}
	if raw.Ekubo == nil {
		return nil, fmt.Errorf("%w: missing ekubo_metrics", ErrInputParse)
	}
	return &RiskScoringInput{JediSwap: *raw.JediSwap, Ekubo: *raw.Ekubo}, nil
}

// ReadInput loads the request from path, or from stdin when path is empty.
func ReadInput(path string, stdin io.Reader) (*RiskScoringInput, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path) //nolint:gosec
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseInput(data)
}
