package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/listener"
	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
	"github.com/olehkaliuzhnyi/ethwallet/internal/storage"
	"github.com/olehkaliuzhnyi/ethwallet/internal/tx"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/units"
)

// serveMetrics exposes the RPC metrics while a long-running command waits.
// It returns a stop function; an empty addr disables it.
func (a *app) serveMetrics(addr string) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger := log.WithComponent("metrics")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func newSendCmd(a *app) *cobra.Command {
	var (
		keys           keyFlags
		fields         txFlags
		wait           bool
		idempotencyKey string
		metricsAddr    string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign and broadcast a transaction; the key is read from stdin",
		Long: `Sign and broadcast a transaction. Nonce, gas limit and (for legacy
transactions) gas price are fetched from the node when not given.
With --wait the command polls for the receipt; a transaction that is still
pending when polling ends is reported with status "pending" and its hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := fields.request(a.cfg.Chain.ChainIDBig())
			if err != nil {
				return err
			}
			kp, err := keys.load(a, cmd)
			if err != nil {
				return err
			}
			defer kp.Zero()

			stop, err := a.serveMetrics(metricsAddr)
			if err != nil {
				return err
			}
			defer stop()

			client, err := a.dial(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			builder := tx.NewBuilder(
				tx.BuilderConfig{
					Chain:      a.cfg.Chain,
					MaxRetries: a.cfg.Broadcast.MaxRetries,
				},
				client,
				chain.NewGasEstimator(client, a.cfg.GasPolicy()),
				listener.NewReceiptPoller(client, a.cfg.ListenerConfig()),
				storage.NewMemoryNonceStore(),
				storage.NewMemoryTxStore(),
			)
			sent, err := builder.Send(ctx, tx.SendRequest{
				IdempotencyKey: idempotencyKey,
				Key:            kp,
				Tx:             req,
				Wait:           wait,
			})
			if sent != nil {
				if werr := writeJSON(cmd.OutOrStdout(), sent); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	keys.register(cmd)
	fields.register(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "poll for the receipt after broadcast")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "key recorded with the sent transaction")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

type balanceOutput struct {
	Address string `json:"address"`
	Wei     string `json:"wei"`
	Ether   string `json:"ether"`
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print the latest balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := wallet.ParseAddress(args[0])
			if err != nil {
				return err
			}
			client, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			bal, err := client.GetBalance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), balanceOutput{
				Address: addr.Checksum(),
				Wei:     bal.String(),
				Ether:   units.FormatEther(bal),
			})
		},
	}
}

func newReceiptCmd(a *app) *cobra.Command {
	var (
		wait        bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "receipt <tx-hash>",
		Short: "Look up, or wait for, a transaction receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stop, err := a.serveMetrics(metricsAddr)
			if err != nil {
				return err
			}
			defer stop()

			client, err := a.dial(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if wait {
				conf, err := listener.NewReceiptPoller(client, a.cfg.ListenerConfig()).Wait(ctx, args[0])
				if conf != nil {
					if werr := writeJSON(cmd.OutOrStdout(), conf); werr != nil && err == nil {
						err = werr
					}
				}
				return err
			}

			r, err := client.GetTransactionReceipt(ctx, args[0])
			if err != nil {
				return err
			}
			conf := &models.Confirmation{Hash: args[0], Status: models.TxStatusPending, Receipt: r, Attempts: 1}
			if r != nil {
				conf.Confirmations = 1
				conf.Status = models.TxStatusConfirmed
				if !r.Succeeded() {
					conf.Status = models.TxStatusFailed
				}
			}
			return writeJSON(cmd.OutOrStdout(), conf)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the receipt is final or attempts run out")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}
