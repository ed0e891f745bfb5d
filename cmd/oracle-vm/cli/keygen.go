package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"

	"github.com/oraclevm/oracle-vm/internal/crypto"
	"github.com/oraclevm/oracle-vm/internal/utils"
)

// KeygenCmd prints a fresh secp256k1 key pair for signing price
// submissions. The private key goes in feeder.signing-key.
func KeygenCmd() *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generates a key pair for signing price submissions",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := utils.GetBTCParams(network)
			if err != nil {
				return err
			}

			priv, pub, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}

			// p2wpkh address identifying the node on the given network
			addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
			if err != nil {
				return fmt.Errorf("failed to derive address: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "private key: %s\n", hex.EncodeToString(priv.Serialize()))
			fmt.Fprintf(out, "public key:  %s\n", hex.EncodeToString(pub.SerializeCompressed()))
			fmt.Fprintf(out, "key id:      %s\n", crypto.KeyID(pub))
			fmt.Fprintf(out, "address:     %s\n", addr.EncodeAddress())
			return nil
		},
	}
	cmd.Flags().StringVar(&network, "network", utils.BtcMainnet.String(), "bitcoin network used to encode the address")

	return cmd
}
