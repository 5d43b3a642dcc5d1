package commands

import (
	"fmt"

	"github.com/meridiannetwork/meridian/src/crypto"
	"github.com/meridiannetwork/meridian/src/meridian"
	"github.com/spf13/cobra"
)

var keyDir string

// NewKeygenCmd produces a KeygenCmd which creates a key pair
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create new key pair",
		RunE:  keygen,
	}

	AddKeygenFlags(cmd)

	return cmd
}

//AddKeygenFlags adds flags to the keygen command
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&keyDir, "datadir", _config.DataDir, "Directory where the key pair will be written")
}

func keygen(cmd *cobra.Command, args []string) error {
	key, err := meridian.Keygen(keyDir)
	if err != nil {
		return err
	}

	pem, err := crypto.ToPemKey(key)
	if err != nil {
		return err
	}

	fmt.Printf("Your private key has been saved under: %s\n", keyDir)
	fmt.Println("PublicKey:")
	fmt.Println(pem.PublicKey)

	return nil
}
