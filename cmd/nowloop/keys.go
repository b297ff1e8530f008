package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/nowloop/internal/sqlite"
)

var (
	argKeyDescription string

	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the HTTP transport",
	}

	keysAddCmd = &cobra.Command{
		Use:   "add <token> <client-id>",
		Short: "Allow a bearer token to act as a client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(func(keys *sqlite.APIKeyRepository) error {
				if err := keys.AddKey(cmd.Context(), args[0], args[1], argKeyDescription); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added key for %s\n", args[1])
				return nil
			})
		},
	}

	keysRevokeCmd = &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(func(keys *sqlite.APIKeyRepository) error {
				if err := keys.RevokeKey(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			})
		},
	}
)

func init() {
	keysAddCmd.Flags().StringVarP(&argKeyDescription, "description", "d", "", "Free-form note stored with the key")
	keysCmd.AddCommand(keysAddCmd, keysRevokeCmd)
}

func withKeys(fn func(*sqlite.APIKeyRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(sqlite.NewAPIKeyRepository(db))
}
