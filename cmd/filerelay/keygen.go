package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studio1767/filerelay/internal/crypt"
)

var keygenOutput string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an age identity for encrypting relayed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, recipient, err := crypt.GenerateIdentity()
		if err != nil {
			return err
		}

		if keygenOutput == "" {
			fmt.Printf("# public key: %s\n%s\n", recipient, secret)
			return nil
		}

		f, err := os.OpenFile(keygenOutput, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := fmt.Fprintf(f, "# public key: %s\n%s\n", recipient, secret); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Public key: %s\n", recipient)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVarP(&keygenOutput, "output", "o", "", "write the identity to this file instead of stdout")
}
