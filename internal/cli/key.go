package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/auth"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
		Long:  "Create, list and revoke API keys. These commands work on the server's database directly, so run them on the server host.",
	}
	cmd.AddCommand(newKeyCreateCmd(), newKeyListCmd(), newKeyRevokeCmd())
	return cmd
}

func newKeyCreateCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Long: `Create an API key. The key is printed once and cannot be shown again.

Examples:
  fv key create laptop
  fv key create laptop --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(strings.Join(args, " "), save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "also store the key in the CLI config")

	return cmd
}

func runKeyCreate(name string, save bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	raw, key, err := auth.NewAPIKeyStore(database).Create(name)
	if err != nil {
		return fmt.Errorf("creating key: %w", err)
	}

	if save {
		cfg, err := loadConfig()
		if err != nil {
			cfg = CLIConfig{}
		}
		cfg.APIKey = raw
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":   key.ID,
			"name": key.Name,
			"key":  raw,
		})
	}

	fmt.Printf("API key %q created:\n\n  %s\n\n", key.Name, raw)
	if save {
		fmt.Println("✓ Saved to the CLI config.")
	} else {
		fmt.Println("Store it now; it will not be shown again.")
	}
	return nil
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList()
		},
	}
}

func runKeyList() error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	keys, err := auth.NewAPIKeyStore(database).List()
	if err != nil {
		return err
	}

	if isJSON() {
		if keys == nil {
			keys = []auth.APIKey{}
		}
		return printJSON(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\t%s\n",
			k.ID, k.Name, k.KeyPrefix, k.CreatedAt.Local().Format("2006-01-02"), lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

func newKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}
			return runKeyRevoke(id)
		},
	}
}

func runKeyRevoke(id int64) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := auth.NewAPIKeyStore(database).Delete(id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "revoked": true})
	}
	fmt.Printf("API key #%d revoked.\n", id)
	return nil
}
