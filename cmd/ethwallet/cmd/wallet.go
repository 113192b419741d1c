package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

func newMnemonicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mnemonic",
		Short: "Generate or validate BIP-39 mnemonics",
	}

	var words int
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new English mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strength := wallet.Strength12Words
			switch words {
			case 12:
			case 24:
				strength = wallet.Strength24Words
			default:
				return fmt.Errorf("--words must be 12 or 24, got %d", words)
			}
			m, err := wallet.GenerateMnemonic(strength)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m)
			return err
		},
	}
	newCmd.Flags().IntVar(&words, "words", 12, "number of words (12 or 24)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a mnemonic read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.readSecret(cmd, "Mnemonic: ")
			if err != nil {
				return err
			}
			if err := wallet.ValidateMnemonic(m); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return err
		},
	}

	cmd.AddCommand(newCmd, validateCmd)
	return cmd
}

// keyFlags select where the signing key comes from.
type keyFlags struct {
	fromMnemonic bool
	passphrase   bool
	path         string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.fromMnemonic, "mnemonic", false, "read a mnemonic instead of a private key")
	cmd.Flags().BoolVar(&f.passphrase, "passphrase", false, "also read a BIP-39 passphrase (with --mnemonic)")
	cmd.Flags().StringVar(&f.path, "path", "", "derivation path (default from config)")
}

// load reads the key from stdin. The caller zeroes it when done.
func (f *keyFlags) load(a *app, cmd *cobra.Command) (*wallet.KeyPair, error) {
	if f.fromMnemonic {
		kp, _, err := f.hdWallet(a, cmd)
		return kp, err
	}
	s, err := a.readSecret(cmd, "Private key: ")
	if err != nil {
		return nil, err
	}
	return wallet.DeriveFromPrivateKey(s)
}

func (f *keyFlags) hdWallet(a *app, cmd *cobra.Command) (*wallet.KeyPair, *wallet.HDWalletInfo, error) {
	m, err := a.readSecret(cmd, "Mnemonic: ")
	if err != nil {
		return nil, nil, err
	}
	var pass string
	if f.passphrase {
		if pass, err = a.readSecret(cmd, "Passphrase: "); err != nil {
			return nil, nil, err
		}
	}
	path := f.path
	if path == "" {
		path = a.cfg.Wallet.DerivationPath
	}
	return wallet.DeriveFromMnemonic(m, pass, path)
}

func newDeriveCmd(a *app) *cobra.Command {
	var (
		keys  keyFlags
		count uint32
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive addresses from a mnemonic read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count == 0 {
				return fmt.Errorf("--count must be positive")
			}
			first, info, err := keys.hdWallet(a, cmd)
			if err != nil {
				return err
			}
			first.Zero()

			out := make([]*models.DerivedAddress, 0, count)
			for i := uint32(0); i < count; i++ {
				index := info.AccountIndex + i
				kp, err := wallet.DeriveChildAddress(info, index)
				if err != nil {
					return err
				}
				p, _ := info.DerivationPath.WithAddressIndex(index)
				out = append(out, wallet.Describe(kp, p))
				kp.Zero()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&keys.passphrase, "passphrase", false, "also read a BIP-39 passphrase")
	cmd.Flags().StringVar(&keys.path, "path", "", "derivation path of the first address (default from config)")
	cmd.Flags().Uint32Var(&count, "count", 1, "number of consecutive addresses")
	return cmd
}

func newAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of a private key read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSecret(cmd, "Private key: ")
			if err != nil {
				return err
			}
			kp, err := wallet.DeriveFromPrivateKey(s)
			if err != nil {
				return err
			}
			defer kp.Zero()
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"address":    kp.Address.Checksum(),
				"public_key": kp.PublicKeyHex(),
			})
		},
	}
}
