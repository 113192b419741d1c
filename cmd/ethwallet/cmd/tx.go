package cmd

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/ethwallet/internal/tx"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/units"
)

// txFlags are the transaction fields accepted on the command line. Empty
// strings leave the field unset.
type txFlags struct {
	txType      string
	to          string
	value       string
	nonce       string
	gasLimit    uint64
	gasPrice    string
	maxFee      string
	tip         string
	data        string
	erc20To     string
	erc20Amount string
}

func (f *txFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.txType, "type", "", "legacy or eip1559 (default: legacy if --gas-price is set)")
	fl.StringVar(&f.to, "to", "", "recipient, or token contract with --erc20-to")
	fl.StringVar(&f.value, "value", "0", "amount in ether")
	fl.StringVar(&f.nonce, "nonce", "", "account nonce")
	fl.Uint64Var(&f.gasLimit, "gas-limit", 0, "gas limit")
	fl.StringVar(&f.gasPrice, "gas-price", "", "legacy gas price in gwei")
	fl.StringVar(&f.maxFee, "max-fee", "", "EIP-1559 max fee per gas in gwei")
	fl.StringVar(&f.tip, "tip", "", "EIP-1559 max priority fee per gas in gwei")
	fl.StringVar(&f.data, "data", "", "hex call data")
	fl.StringVar(&f.erc20To, "erc20-to", "", "encode an ERC-20 transfer to this address")
	fl.StringVar(&f.erc20Amount, "erc20-amount", "", "ERC-20 amount in token base units")
}

func (f *txFlags) request(chainID *big.Int) (tx.Request, error) {
	req := tx.Request{ChainID: chainID}

	if f.txType != "" {
		t, err := tx.ParseTxType(f.txType)
		if err != nil {
			return req, err
		}
		req.Type = t.Ptr()
	}
	if f.to != "" {
		to, err := wallet.ParseAddress(f.to)
		if err != nil {
			return req, err
		}
		req.To = &to
	}

	var err error
	if req.Value, err = units.ParseEther(f.value); err != nil {
		return req, fmt.Errorf("--value: %w", err)
	}
	if f.nonce != "" {
		n, ok := new(big.Int).SetString(f.nonce, 10)
		if !ok {
			return req, fmt.Errorf("--nonce: not a decimal integer: %q", f.nonce)
		}
		req.Nonce = n
	}
	if f.gasLimit > 0 {
		req.GasLimit = new(big.Int).SetUint64(f.gasLimit)
	}
	if req.GasPrice, err = optionalGwei("--gas-price", f.gasPrice); err != nil {
		return req, err
	}
	if req.MaxFeePerGas, err = optionalGwei("--max-fee", f.maxFee); err != nil {
		return req, err
	}
	if req.MaxPriorityFeePerGas, err = optionalGwei("--tip", f.tip); err != nil {
		return req, err
	}

	if f.data != "" {
		if req.Data, err = hexutil.Decode(f.data); err != nil {
			return req, fmt.Errorf("--data: %w", err)
		}
	}
	if f.erc20To != "" {
		if f.data != "" {
			return req, errors.New("--data and --erc20-to are mutually exclusive")
		}
		recipient, err := wallet.ParseAddress(f.erc20To)
		if err != nil {
			return req, fmt.Errorf("--erc20-to: %w", err)
		}
		amount, ok := new(big.Int).SetString(f.erc20Amount, 10)
		if !ok {
			return req, fmt.Errorf("--erc20-amount: not a decimal integer: %q", f.erc20Amount)
		}
		if req.Data, err = tx.ERC20TransferData(recipient, amount); err != nil {
			return req, err
		}
	}
	return req, nil
}

func optionalGwei(flag, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := units.ParseGwei(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return v, nil
}

type signedOutput struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
	From string `json:"from"`
	Raw  string `json:"raw"`
}

func newSignCmd(a *app) *cobra.Command {
	var (
		keys   keyFlags
		fields txFlags
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a transaction offline; the key is read from stdin",
		Long: `Sign a fully specified transaction without contacting a node.
Nonce, gas limit and fees must be given on the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := fields.request(a.cfg.Chain.ChainIDBig())
			if err != nil {
				return err
			}
			kp, err := keys.load(a, cmd)
			if err != nil {
				return err
			}
			defer kp.Zero()

			signed, err := tx.SignRequest(req, kp.PrivateKey)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), signedOutput{
				Type: signed.Type().String(),
				Hash: signed.HashHex(),
				From: kp.Address.Checksum(),
				Raw:  signed.RawHex(),
			})
		},
	}
	keys.register(cmd)
	fields.register(cmd)
	return cmd
}

type decodedOutput struct {
	Type                 string `json:"type"`
	Hash                 string `json:"hash"`
	From                 string `json:"from"`
	ChainID              string `json:"chain_id"`
	Nonce                uint64 `json:"nonce"`
	To                   string `json:"to"`
	Value                string `json:"value"`
	ValueEther           string `json:"value_ether"`
	GasLimit             string `json:"gas_limit"`
	GasPrice             string `json:"gas_price,omitempty"`
	MaxFeePerGas         string `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFeePerGas string `json:"max_priority_fee_per_gas,omitempty"`
	Data                 string `json:"data,omitempty"`
	AccessListEntries    int    `json:"access_list_entries,omitempty"`
	V                    string `json:"v"`
	R                    string `json:"r"`
	S                    string `json:"s"`
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <raw-hex>",
		Short: "Decode a signed raw transaction and recover its sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signed, err := tx.DecodeHex(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			from, err := signed.Sender()
			if err != nil {
				return err
			}

			c := signed.Tx.Common()
			out := decodedOutput{
				Type:       signed.Type().String(),
				Hash:       signed.HashHex(),
				From:       from.Checksum(),
				ChainID:    c.ChainID.String(),
				Nonce:      c.Nonce,
				To:         c.To.Checksum(),
				Value:      c.Value.String(),
				ValueEther: units.FormatEther(c.Value),
				GasLimit:   c.GasLimit.String(),
				V:          signed.V.String(),
				R:          hexutil.EncodeBig(signed.R),
				S:          hexutil.EncodeBig(signed.S),
			}
			if len(c.Data) > 0 {
				out.Data = hexutil.Encode(c.Data)
			}
			switch t := signed.Tx.(type) {
			case *tx.LegacyTx:
				out.GasPrice = t.GasPrice.String()
			case *tx.DynamicFeeTx:
				out.MaxFeePerGas = t.MaxFeePerGas.String()
				out.MaxPriorityFeePerGas = t.MaxPriorityFeePerGas.String()
				out.AccessListEntries = len(t.AccessList)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
