// Command riskproof computes the risk scores of two liquidity protocols,
// proves them with Groth16 and prints a JSON record carrying the scores, the
// proof location and the Integrity verifier payloads.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/obsqra/riskproof/config"
	"github.com/obsqra/riskproof/metrics"
	"github.com/obsqra/riskproof/pipeline"
	"github.com/obsqra/riskproof/prover"
	"github.com/obsqra/riskproof/snarkjs"
)

var flags struct {
	config             string
	proofPath          string
	settingsPath       string
	verifierConfigPath string
	starkProofPath     string
	noVerify           bool
	snarkjsDir         string
	strict             bool
	logLevel           string
}

var rootCmd = &cobra.Command{
	Use:   "riskproof [input.json]",
	Short: "Prove protocol risk scores",
	Long: `Reads {"jediswap_metrics": ..., "ekubo_metrics": ...} from the given file or
standard input, proves both risk scores and prints the result record.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		in, err := metrics.ReadInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		r := &pipeline.Runner{Config: cfg, Logger: log}
		res, err := r.Run(in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify persisted proof and settings artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		proof, err := prover.LoadProof(cfg.Paths.Proof)
		if err != nil {
			return err
		}
		settings, err := prover.LoadSettings(cfg.Paths.Settings)
		if err != nil {
			return err
		}
		if err := prover.Verify(proof, settings); err != nil {
			return err
		}
		public, err := proof.PublicValues()
		if err != nil {
			return err
		}
		log.Info().Str("proof", cfg.Paths.Proof).Msg("proof verified")
		signals := make([]string, len(public))
		for i, v := range public {
			signals[i] = v.String()
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"verified": true, "public_values": signals})
	},
}

var verifySnarkjsCmd = &cobra.Command{
	Use:   "verify-snarkjs <dir>",
	Short: "Verify a snarkjs bundle with gnark and go-snark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := snarkjs.VerifyDir(args[0]); err != nil {
			return err
		}
		log.Info().Str("dir", args[0]).Msg("snarkjs bundle verified")
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "YAML configuration file")
	pf.StringVar(&flags.proofPath, "proof-path", "", "proof artifact path")
	pf.StringVar(&flags.settingsPath, "settings-path", "", "settings artifact path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug|info|warn|error")

	f := rootCmd.Flags()
	f.StringVar(&flags.verifierConfigPath, "verifier-config-path", "", "verifier configuration payload path")
	f.StringVar(&flags.starkProofPath, "stark-proof-path", "", "STARK proof payload path")
	f.BoolVar(&flags.noVerify, "no-verify", false, "skip verification of the written proof")
	f.StringVar(&flags.snarkjsDir, "snarkjs-dir", "", "also export the proof as a snarkjs bundle into this directory")
	f.BoolVar(&flags.strict, "strict", false, "reject metrics outside their documented ranges")

	rootCmd.AddCommand(verifyCmd, verifySnarkjsCmd)
}

// setup loads the configuration, applies flag overrides and builds the
// logger. gnark's own logger is routed through it.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("proof-path", &cfg.Paths.Proof, flags.proofPath)
	set("settings-path", &cfg.Paths.Settings, flags.settingsPath)
	set("verifier-config-path", &cfg.Paths.VerifierConfig, flags.verifierConfigPath)
	set("stark-proof-path", &cfg.Paths.StarkProof, flags.starkProofPath)
	set("snarkjs-dir", &cfg.SnarkjsDir, flags.snarkjsDir)
	set("log-level", &cfg.LogLevel, flags.logLevel)
	if cmd.Flags().Changed("no-verify") {
		cfg.Verify = !flags.noVerify
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = flags.strict
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("invalid configuration: %w", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	gnarklogger.Set(log.With().Str("component", "gnark").Logger())
	return cfg, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
