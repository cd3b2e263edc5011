package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"GeminiStream/model"

	"github.com/spf13/cobra"
)

var (
	settingsURL      string
	settingsUser     string
	settingsPassword string
	settingsLrcLib   bool
	settingsNoPing   bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or save the server settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved settings with the password hidden",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRedis, err := openSettings()
		if err != nil {
			return err
		}
		defer closeRedis()

		creds, err := repo.Load(cmd.Context())
		if err != nil {
			return err
		}
		if creds == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No settings saved.")
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(creds.Redacted())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Validate and save the server settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := model.Credentials{
			ServerURL:            settingsURL,
			Username:             settingsUser,
			Password:             settingsPassword,
			EnableLyricsFallback: settingsLrcLib,
		}
		if creds.Password == "" {
			creds.Password = os.Getenv("SUBSONIC_PASSWORD")
		}
		if err := creds.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		if !settingsNoPing {
			if err := newSubsonicClient().Ping(ctx, creds); err != nil {
				return fmt.Errorf("server check failed (use --no-ping to save anyway): %w", err)
			}
		}

		repo, closeRedis, err := openSettings()
		if err != nil {
			return err
		}
		defer closeRedis()

		if err := repo.Save(ctx, creds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings saved for %s@%s\n", creds.Username, creds.BaseURL())
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsURL, "url", "", "Subsonic server URL")
	settingsSetCmd.Flags().StringVar(&settingsUser, "user", "", "Subsonic username")
	settingsSetCmd.Flags().StringVar(&settingsPassword, "password", "", "Subsonic password (or SUBSONIC_PASSWORD)")
	settingsSetCmd.Flags().BoolVar(&settingsLrcLib, "lrclib", false, "fall back to LrcLib for lyrics")
	settingsSetCmd.Flags().BoolVar(&settingsNoPing, "no-ping", false, "skip the server connectivity check")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
