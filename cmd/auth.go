package cmd

import (
	"fmt"
	"os"

	"birdcam-pipeline/infrastructure/youtube"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the Google OAuth flow",
	Long: `Runs the browser OAuth flow for the YouTube upload scope and saves the
refresh token where the daemon can find it, so unattended publication works
later. Run this once on a machine with a browser before enabling publishing.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	if c.Google.CredentialsFile == "" || c.Google.TokenFile == "" {
		return fmt.Errorf("google.credentials_file and google.token_file must be configured")
	}

	if err := youtube.Authenticate(cmd.Context(), youtube.OAuthConfig{
		CredentialsFile: c.Google.CredentialsFile,
		TokenFile:       c.Google.TokenFile,
	}); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Token saved to %s\n", c.Google.TokenFile)
	return nil
}
