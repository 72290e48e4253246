package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/facility-scheduler/internal/application"
)

func newTokenCmd() *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate an operator bearer token and its SCHEDULER_OPERATOR_TOKENS entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make([]byte, 32)
			if _, err := rand.Read(raw); err != nil {
				return err
			}
			token := base64.RawURLEncoding.EncodeToString(raw)

			digest, err := application.CreateTokenDigest(token, application.DefaultArgon2idParams)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "token: %s\n", token)
			fmt.Fprintf(os.Stdout, "entry: %s:%s\n", operator, digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "ops", "operator name bound to the token")
	return cmd
}
