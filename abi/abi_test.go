package abi

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/stretchr/testify/require"
)

func TestFelt(t *testing.T) {
	require.Equal(t, "0x0", Felt{}.Hex())
	require.Equal(t, "0x0", FeltFromUint64(0).Hex())
	require.Equal(t, "0xff", FeltFromUint64(255).Hex())
	require.True(t, Felt{}.IsZero())

	p := fp.Modulus()
	last, err := FeltFromBigInt(new(big.Int).Sub(p, big.NewInt(1)))
	require.NoError(t, err)
	require.Equal(t, "0x"+new(big.Int).Sub(p, big.NewInt(1)).Text(16), last.Hex())
	_, err = FeltFromBigInt(p)
	require.ErrorIs(t, err, ErrSchema)
	_, err = FeltFromBigInt(big.NewInt(-1))
	require.ErrorIs(t, err, ErrSchema)

	for _, s := range []string{"0x1f", "31"} {
		f, err := ParseFelt(s)
		require.NoError(t, err, s)
		require.True(t, f.Equal(FeltFromUint64(31)), s)
	}
	for _, s := range []string{"", "0x", "0xzz", "-1", "1.5"} {
		_, err := ParseFelt(s)
		require.Error(t, err, s)
	}
}

func TestShortString(t *testing.T) {
	f, err := FeltFromShortString("stone6")
	require.NoError(t, err)
	require.Equal(t, "0x73746f6e6536", f.Hex())

	f, err = FeltFromShortString("")
	require.NoError(t, err)
	require.True(t, f.IsZero())

	_, err = FeltFromShortString(strings.Repeat("a", MaxShortStringLen))
	require.NoError(t, err)
	_, err = FeltFromShortString(strings.Repeat("a", MaxShortStringLen+1))
	require.Error(t, err)
	_, err = FeltFromShortString("stöne")
	require.Error(t, err)
}

func TestZeroVerifierConfiguration(t *testing.T) {
	out, err := Marshal(ZeroVerifierConfiguration())
	require.NoError(t, err)
	require.Equal(t, `{"layout":"0x0","hasher":"0x0","stone_version":"0x0","memory_verification":"0x0"}`, string(out))
}

func TestZeroStarkProofIsDeterministic(t *testing.T) {
	a, err := Marshal(ZeroStarkProof())
	require.NoError(t, err)
	b, err := Marshal(ZeroStarkProof())
	require.NoError(t, err)
	require.Equal(t, a, b)

	s := string(a)
	require.True(t, strings.HasPrefix(s, `{"config":{"traces":{"original":{"n_columns":"0x0"`), s)
	require.Contains(t, s, `"inner_layers":[]`)
	require.Contains(t, s, `"oods_values":[]`)
	require.Contains(t, s, `"layers":[]`)
	require.NotContains(t, s, "null")

	// Every scalar is "0x0" and every list is empty.
	var walk func(v Value)
	walk = func(v Value) {
		switch v.Kind {
		case KindFelt:
			require.True(t, v.Felt.IsZero())
		case KindArray:
			require.Empty(t, v.Elems)
		case KindObject:
			for _, f := range v.Fields {
				walk(f.Value)
			}
		default:
			t.Fatalf("unexpected kind %d", v.Kind)
		}
	}
	v, err := Encode(ZeroStarkProof())
	require.NoError(t, err)
	walk(v)

	// the output is valid JSON in the order of the schema
	var generic map[string]any
	require.NoError(t, json.Unmarshal(a, &generic))
	keys := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		keys = append(keys, f.Name)
	}
	require.Equal(t, []string{"config", "public_input", "unsent_commitment", "witness"}, keys)
}

func sampleProof() StarkProof {
	var p StarkProof
	p.Config.NQueries = FeltFromUint64(18)
	p.Config.Fri.InnerLayers = []TableCommitmentConfig{
		{NColumns: FeltFromUint64(16)},
		{NColumns: FeltFromUint64(8), Vector: VectorCommitmentConfig{Height: FeltFromUint64(20)}},
	}
	p.Config.Fri.FriStepSizes = []Felt{FeltFromUint64(0), FeltFromUint64(4), FeltFromUint64(4), FeltFromUint64(3)}
	p.PublicInput.Layout, _ = FeltFromShortString("recursive")
	p.PublicInput.Segments = []SegmentInfo{{BeginAddr: FeltFromUint64(1), StopPtr: FeltFromUint64(5)}}
	p.PublicInput.MainPage = []AddrValue{{Address: FeltFromUint64(3), Value: FeltFromUint64(9)}, {Address: FeltFromUint64(2)}}
	p.UnsentCommitment.OodsValues = []Felt{FeltFromUint64(7), FeltFromUint64(6), FeltFromUint64(5)}
	p.Witness.FriWitness.Layers = []FriLayerWitness{
		{Leaves: []Felt{FeltFromUint64(1)}},
		{Leaves: []Felt{FeltFromUint64(2), FeltFromUint64(3)}, TableWitness: TableCommitmentWitness{
			Vector: VectorCommitmentWitness{Authentications: []Felt{FeltFromUint64(0xabc)}},
		}},
	}
	return p
}

func TestRoundTrip(t *testing.T) {
	in := sampleProof()
	data, err := Marshal(in)
	require.NoError(t, err)

	var out StarkProof
	require.NoError(t, Unmarshal(data, &out))

	require.Len(t, out.Config.Fri.InnerLayers, 2)
	require.Equal(t, "0x10", out.Config.Fri.InnerLayers[0].NColumns.Hex())
	require.Equal(t, "0x14", out.Config.Fri.InnerLayers[1].Vector.Height.Hex())
	require.Len(t, out.Config.Fri.FriStepSizes, 4)
	for i, want := range []uint64{0, 4, 4, 3} {
		require.True(t, out.Config.Fri.FriStepSizes[i].Equal(FeltFromUint64(want)), "fri_step_sizes[%d]", i)
	}
	for i, want := range []uint64{7, 6, 5} {
		require.True(t, out.UnsentCommitment.OodsValues[i].Equal(FeltFromUint64(want)), "oods_values[%d]", i)
	}
	require.Len(t, out.Witness.FriWitness.Layers, 2)
	require.Len(t, out.Witness.FriWitness.Layers[1].Leaves, 2)
	require.Equal(t, "0xabc", out.Witness.FriWitness.Layers[1].TableWitness.Vector.Authentications[0].Hex())
	require.Empty(t, out.Witness.TracesWitness.Original.Vector.Authentications)

	again, err := Marshal(out)
	require.NoError(t, err)
	require.Equal(t, string(data), string(again))
}

func TestDecodeSchemaErrors(t *testing.T) {
	var cfg VerifierConfiguration
	cases := map[string]string{
		"missing field":  `{"layout":"0x0","hasher":"0x0","stone_version":"0x0"}`,
		"reordered":      `{"hasher":"0x0","layout":"0x0","stone_version":"0x0","memory_verification":"0x0"}`,
		"array for felt": `{"layout":[],"hasher":"0x0","stone_version":"0x0","memory_verification":"0x0"}`,
		"boolean":        `{"layout":true,"hasher":"0x0","stone_version":"0x0","memory_verification":"0x0"}`,
		"trailing":       `{"layout":"0x0","hasher":"0x0","stone_version":"0x0","memory_verification":"0x0"} {}`,
	}
	for name, in := range cases {
		require.ErrorIs(t, Unmarshal([]byte(in), &cfg), ErrSchema, name)
	}
	require.ErrorIs(t, Decode(Value{Kind: KindFelt}, cfg), ErrUnsupportedType)
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(struct {
		N int `json:"n"`
	}{})
	require.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Encode(struct{ F Felt }{})
	require.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Encode(nil)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestBridge(t *testing.T) {
	p, err := Bridge(VerifierNames{})
	require.NoError(t, err)
	zero, err := Marshal(ZeroVerifierConfiguration())
	require.NoError(t, err)
	require.Equal(t, zero, p.ConfigJSON)
	proof, err := Marshal(ZeroStarkProof())
	require.NoError(t, err)
	require.Equal(t, proof, p.ProofJSON)

	p, err = Bridge(VerifierNames{Layout: "recursive", Hasher: "keccak_160_lsb", StoneVersion: "stone6", MemoryVerification: "strict"})
	require.NoError(t, err)
	var cfg VerifierConfiguration
	require.NoError(t, Unmarshal(p.ConfigJSON, &cfg))
	want, _ := FeltFromShortString("keccak_160_lsb")
	require.True(t, cfg.Hasher.Equal(want))
	layout, ok := p.Config.Get("layout")
	require.True(t, ok)
	require.Equal(t, "0x726563757273697665", layout.Felt.Hex())

	_, err = Bridge(VerifierNames{Layout: strings.Repeat("x", 40)})
	require.Error(t, err)
}
