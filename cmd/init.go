package cmd

import (
	"fmt"
	"os"

	"stacli/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter stacli.yaml",
	Long: `Writes a stacli.yaml with the settings people actually change into the
current directory. Environment variables (STACLI_*, GEMINI_API_KEY)
override the file.`,
	Example: `  stacli init
  stacli init --force`,
	Run: runInit,
}

// scaffoldConfig is the subset of settings the starter file exposes.
type scaffoldConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	STAPath    string `yaml:"sta_path"`
	STAImage   string `yaml:"sta_image"`
	RunsDir    string `yaml:"runs_dir"`
	Iterations int    `yaml:"iterations"`
	DefaultLib string `yaml:"default_lib"`
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing stacli.yaml")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(config.FileName); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", config.FileName)
		os.Exit(1)
	}

	defaults := config.Default()
	data, err := yaml.Marshal(scaffoldConfig{
		Model:      defaults.Model,
		STAPath:    defaults.STAPath,
		STAImage:   defaults.STAImage,
		RunsDir:    defaults.RunsDir,
		Iterations: defaults.Iterations,
		DefaultLib: defaults.DefaultLib,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	header := "# stacli configuration. Environment variables (STACLI_*, GEMINI_API_KEY)\n# override these values.\n"
	if err := os.WriteFile(config.FileName, append([]byte(header), data...), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\033[32m✓\033[0m Wrote %s\n", config.FileName)
	fmt.Println("\033[90mSet GEMINI_API_KEY (or api_key) before running analyze/generate/fix\033[0m")
}
