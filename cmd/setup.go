package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"birdcam-pipeline/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the directories, detection model and
publishing settings the pipeline needs.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, "config/config.yaml")
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to birdcam-pipeline setup!")
	fmt.Println()

	c := config.Default()

	if err := promptPaths(prompter, c); err != nil {
		return err
	}
	if err := promptDetection(prompter, c); err != nil {
		return err
	}
	if err := promptPublish(prompter, c); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(c, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, c *config.Config) error {
	staging, err := prompter.Input("Where does the camera drop recordings?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if staging == "" {
		return fmt.Errorf("staging directory is required")
	}
	c.Paths.StagingDirectory = staging

	output, err := prompter.Input("Where should clips and combined files go?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if output == "" {
		return fmt.Errorf("output directory is required")
	}
	c.Paths.OutputDirectory = output

	catalogFile, err := prompter.Input("Where should the catalog database live?",
		filepath.Join(output, "catalog.db"))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Paths.CatalogFile = catalogFile

	archiveTarget, err := prompter.Input("rsync archive target (blank to disable)", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Paths.ArchiveTarget = archiveTarget

	return nil
}

func promptDetection(prompter Prompter, c *config.Config) error {
	model, err := prompter.Input("Path to the detection model (ONNX)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if model == "" {
		return fmt.Errorf("model file is required")
	}
	c.Detection.ModelFile = model

	names, err := prompter.Input("Path to the class names file?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if names == "" {
		return fmt.Errorf("class names file is required")
	}
	c.Detection.ClassNamesFile = names

	caption, err := prompter.Input("Overlay caption (blank to disable annotation)", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Watch.AnnotateCaption = caption

	return nil
}

func promptPublish(prompter Prompter, c *config.Config) error {
	enabled, err := prompter.Confirm("Publish daily videos to YouTube?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Publish.Enabled = enabled
	if !enabled {
		return nil
	}

	creds, err := prompter.Input("Path to OAuth client credentials JSON?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if creds == "" {
		return fmt.Errorf("credentials file is required when publishing")
	}
	c.Google.CredentialsFile = creds

	token, err := prompter.Input("Where should the OAuth token be stored?", "config/token.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Google.TokenFile = token

	playlist, err := prompter.Input("Playlist for uploads (blank for none)", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	c.Publish.PlaylistName = playlist

	return nil
}
