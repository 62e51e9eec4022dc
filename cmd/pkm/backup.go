package main

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"pkm/internal/app"
)

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypt a database snapshot into the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Backup", func(ctx context.Context, a *app.PKMApp) error {
			key, err := a.Backup(ctx)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Printf("Stored %s\n", key)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListSnapshots", func(ctx context.Context, a *app.PKMApp) error {
			keys, err := a.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Println("No snapshots.")
				return nil
			}
			for _, k := range keys {
				fmt.Println(path.Base(k))
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore NAME DEST",
	Short: "Decrypt snapshot NAME into the database file DEST",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "RestoreSnapshot", func(ctx context.Context, a *app.PKMApp) error {
			key := args[0]
			if path.Dir(key) == "." {
				key = path.Join("snapshots", a.OwnerID(), key)
			}
			passphrase, err := readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			if err := a.RestoreSnapshot(ctx, key, passphrase, args[1]); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Printf("Restored %s to %s\n", path.Base(key), args[1])
			return nil
		})
	},
}

var backupKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var backupKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if err := app.InitKeys(cfg, passphrase); err != nil {
			return fmt.Errorf("initializing keys: %w", err)
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s (passphrase protected)\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

var backupVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Check the vault is reachable and writable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.ValidateVault(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Printf("Vault %s is ready.\n", cfg.Vault.Type)
		return nil
	},
}

func init() {
	backupKeysCmd.AddCommand(backupKeysInitCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupKeysCmd)
	backupCmd.AddCommand(backupVaultCmd)
	rootCmd.AddCommand(backupCmd)
}
