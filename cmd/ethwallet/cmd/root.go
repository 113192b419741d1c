// Package cmd implements the ethwallet command line.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/config"
	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	v        *viper.Viper
	cfg      config.Config
	cfgFile  string
	envFile  string
	registry *prometheus.Registry
	stdin    *bufio.Reader
}

// Execute adds all child commands to the root command and runs it.
// Interrupting the process cancels the command context, so a receipt wait
// still prints the pending result.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), registry: prometheus.NewRegistry()}

	root := &cobra.Command{
		Use:           "ethwallet",
		Short:         "Ethereum key derivation, transaction signing and broadcast",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./ethwallet.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("rpc", "", "JSON-RPC endpoint")
	flags.Uint64("chain-id", 0, "chain id")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("log-json", false, "log as JSON")

	for key, name := range map[string]string{
		"chain.rpc_endpoint": "rpc",
		"chain.chain_id":     "chain-id",
		"log.level":          "log-level",
		"log.json":           "log-json",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		newMnemonicCmd(a),
		newDeriveCmd(a),
		newAddressCmd(a),
		newSignCmd(a),
		newDecodeCmd(a),
		newSendCmd(a),
		newBalanceCmd(a),
		newReceiptCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Init(cfg.Log.Level, cfg.Log.JSON)
	a.stdin = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// dial connects to the configured node and checks that it serves the
// configured chain.
func (a *app) dial(ctx context.Context) (*chain.RPCClient, error) {
	if a.cfg.Chain.RPCEndpoint == "" {
		return nil, errors.New("no RPC endpoint configured (--rpc or ETHWALLET_CHAIN_RPC_ENDPOINT)")
	}
	client, err := chain.Dial(ctx, a.cfg.Chain.RPCEndpoint,
		chain.WithTimeout(a.cfg.Broadcast.RequestTimeout),
		chain.WithMetrics(chain.NewMetrics(a.registry)),
	)
	if err != nil {
		return nil, err
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if id.Cmp(a.cfg.Chain.ChainIDBig()) != 0 {
		client.Close()
		return nil, fmt.Errorf("node serves chain %s, configured chain is %d", id, a.cfg.Chain.ChainID)
	}
	return client, nil
}

// readSecret reads one line without echo when stdin is a terminal, or the
// next line of piped input otherwise.
func (a *app) readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := a.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("read secret: no input")
		}
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
