package main

import (
	"fmt"
	"os"

	"mixshare/internal/app"
	"mixshare/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads mixshare.toml and starts a MixApp for the named operation.
// Callers defer Close.
func newApp(operation string) (*app.MixApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewMixApp(cfg, operation, defaults["log_level"])
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "mixshare",
	Short:        "Keep favorites of shared files",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(uuid.NewString(), defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (host %s)\n", defaults["config_path"], cfg.HostID)
		fmt.Fprintf(cmd.OutOrStdout(), "next: mixshare keys init\n")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		shown := *cfg
		shown.Vaults = make([]config.VaultConfig, len(cfg.Vaults))
		for i, v := range cfg.Vaults {
			if v.S3SecretAccessKey != "" {
				v.S3SecretAccessKey = "<redacted>"
			}
			shown.Vaults[i] = v
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", defaults["config_path"])
		return config.Encode(cmd.OutOrStdout(), &shown)
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readNewPassphrase()
		if err != nil {
			return err
		}

		a, err := newApp("SetupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetupKeys(passphrase); err != nil {
			return fmt.Errorf("setting up keys: %w", err)
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "Show what a share code points to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.Show(args[0], name)
		if err != nil {
			return err
		}
		printView(os.Stdout, view)
		return nil
	},
}

// code command
var codeCmd = &cobra.Command{
	Use:   "code CODE",
	Short: "Print a share code in long or short form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShareCode")
		if err != nil {
			return err
		}
		defer a.Close()

		if info, _ := cmd.Flags().GetBool("info"); info {
			sc, err := a.ShortCodeInfo(args[0])
			if err != nil {
				return err
			}
			if sc == nil {
				fmt.Println("no short code recorded on this host")
				return nil
			}
			fmt.Printf("%s\n  expands to %s\n  recorded   %s\n", sc.Ref, sc.LongCode, sc.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		}

		short := a.DefaultShort()
		if cmd.Flags().Changed("short") {
			short, _ = cmd.Flags().GetBool("short")
		}

		code, err := a.ShareCode(args[0], short)
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup PATH",
	Short: "Copy the local database to PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDatabase(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database copied to %s\n", args[0])
		return nil
	},
}

// open command
var openCmd = &cobra.Command{
	Use:   "open CODE",
	Short: "Import a file list or preview a vfs manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Open")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Open(args[0], name)
		if err != nil {
			return err
		}
		if res.Import.Added+res.Import.Duplicates+res.Import.Invalid > 0 {
			fmt.Printf("Imported %d favorite(s), %d already present, %d invalid\n",
				res.Import.Added, res.Import.Duplicates, res.Import.Invalid)
		}
		return nil
	},
}

// download command
var downloadCmd = &cobra.Command{
	Use:   "download CODE",
	Short: "Download the file behind a share code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Download")
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.Download(args[0], name)
		if err != nil {
			return err
		}
		fmt.Printf("Downloaded %s\n", task.Name)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Back up the favorites to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Export()
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d favorite(s) at version %d (%d bytes)\n", res.Records, res.Version, res.Bytes)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the favorites with the vault backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Restore(passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d favorite(s), now at version %d\n", res.Records, res.Version)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View favorites change history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		printHistory(os.Stdout, ops)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("name", "", "Display name for the file")
	rootCmd.AddCommand(codeCmd)
	codeCmd.Flags().Bool("short", false, "Print the short form (default from config)")
	codeCmd.Flags().Bool("info", false, "Show the short code recorded for CODE on this host")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().String("name", "", "Manifest file name (decides file list or vfs)")
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().String("name", "", "Name to save the file as")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(favCmd)
}
