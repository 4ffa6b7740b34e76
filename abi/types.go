package abi

// The structures below mirror the Integrity verifier ABI. Field order is
// significant: it is the serialization order.

type StarkProof struct {
	Config           StarkConfig           `json:"config"`
	PublicInput      PublicInput           `json:"public_input"`
	UnsentCommitment StarkUnsentCommitment `json:"unsent_commitment"`
	Witness          StarkWitness          `json:"witness"`
}

type StarkConfig struct {
	Traces                            TracesConfig          `json:"traces"`
	Composition                       TableCommitmentConfig `json:"composition"`
	Fri                               FriConfig             `json:"fri"`
	ProofOfWork                       ProofOfWorkConfig     `json:"proof_of_work"`
	LogTraceDomainSize                Felt                  `json:"log_trace_domain_size"`
	NQueries                          Felt                  `json:"n_queries"`
	LogNCosets                        Felt                  `json:"log_n_cosets"`
	NVerifierFriendlyCommitmentLayers Felt                  `json:"n_verifier_friendly_commitment_layers"`
}

type TracesConfig struct {
	Original    TableCommitmentConfig `json:"original"`
	Interaction TableCommitmentConfig `json:"interaction"`
}

type TableCommitmentConfig struct {
	NColumns Felt                   `json:"n_columns"`
	Vector   VectorCommitmentConfig `json:"vector"`
}

type VectorCommitmentConfig struct {
	Height                            Felt `json:"height"`
	NVerifierFriendlyCommitmentLayers Felt `json:"n_verifier_friendly_commitment_layers"`
}

type FriConfig struct {
	LogInputSize            Felt                    `json:"log_input_size"`
	NLayers                 Felt                    `json:"n_layers"`
	InnerLayers             []TableCommitmentConfig `json:"inner_layers"`
	FriStepSizes            []Felt                  `json:"fri_step_sizes"`
	LogLastLayerDegreeBound Felt                    `json:"log_last_layer_degree_bound"`
}

type ProofOfWorkConfig struct {
	NBits Felt `json:"n_bits"`
}

type PublicInput struct {
	LogNSteps             Felt                   `json:"log_n_steps"`
	RangeCheckMin         Felt                   `json:"range_check_min"`
	RangeCheckMax         Felt                   `json:"range_check_max"`
	Layout                Felt                   `json:"layout"`
	DynamicParams         []Felt                 `json:"dynamic_params"`
	Segments              []SegmentInfo          `json:"segments"`
	PaddingAddr           Felt                   `json:"padding_addr"`
	PaddingValue          Felt                   `json:"padding_value"`
	MainPage              []AddrValue            `json:"main_page"`
	ContinuousPageHeaders []ContinuousPageHeader `json:"continuous_page_headers"`
}

type SegmentInfo struct {
	BeginAddr Felt `json:"begin_addr"`
	StopPtr   Felt `json:"stop_ptr"`
}

type AddrValue struct {
	Address Felt `json:"address"`
	Value   Felt `json:"value"`
}

type ContinuousPageHeader struct {
	StartAddress Felt `json:"start_address"`
	Size         Felt `json:"size"`
	Hash         Felt `json:"hash"`
	Prod         Felt `json:"prod"`
}

type StarkUnsentCommitment struct {
	Traces      TracesUnsentCommitment      `json:"traces"`
	Composition Felt                        `json:"composition"`
	OodsValues  []Felt                      `json:"oods_values"`
	Fri         FriUnsentCommitment         `json:"fri"`
	ProofOfWork ProofOfWorkUnsentCommitment `json:"proof_of_work"`
}

type TracesUnsentCommitment struct {
	Original    Felt `json:"original"`
	Interaction Felt `json:"interaction"`
}

type FriUnsentCommitment struct {
	InnerLayers           []Felt `json:"inner_layers"`
	LastLayerCoefficients []Felt `json:"last_layer_coefficients"`
}

type ProofOfWorkUnsentCommitment struct {
	Nonce Felt `json:"nonce"`
}

type StarkWitness struct {
	TracesDecommitment      TracesDecommitment     `json:"traces_decommitment"`
	TracesWitness           TracesWitness          `json:"traces_witness"`
	CompositionDecommitment TableDecommitment      `json:"composition_decommitment"`
	CompositionWitness      TableCommitmentWitness `json:"composition_witness"`
	FriWitness              FriWitness             `json:"fri_witness"`
}

type TracesDecommitment struct {
	Original    TableDecommitment `json:"original"`
	Interaction TableDecommitment `json:"interaction"`
}

type TableDecommitment struct {
	Values []Felt `json:"values"`
}

type TracesWitness struct {
	Original    TableCommitmentWitness `json:"original"`
	Interaction TableCommitmentWitness `json:"interaction"`
}

type TableCommitmentWitness struct {
	Vector VectorCommitmentWitness `json:"vector"`
}

type VectorCommitmentWitness struct {
	Authentications []Felt `json:"authentications"`
}

type FriWitness struct {
	Layers []FriLayerWitness `json:"layers"`
}

type FriLayerWitness struct {
	Leaves       []Felt                 `json:"leaves"`
	TableWitness TableCommitmentWitness `json:"table_witness"`
}

// VerifierConfiguration selects the verifier variant. Every field is a Cairo
// short string.
type VerifierConfiguration struct {
	Layout             Felt `json:"layout"`
	Hasher             Felt `json:"hasher"`
	StoneVersion       Felt `json:"stone_version"`
	MemoryVerification Felt `json:"memory_verification"`
}
