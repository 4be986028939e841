package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yorulabs/skills-mcp/internal/api"
	"github.com/yorulabs/skills-mcp/internal/config"
)

var (
	runParams  string
	runTimeout time.Duration
)

// skillsCmd groups local inspection commands that exercise the facade
// without a server.
var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect and run skills locally",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := localService()
		if err != nil {
			return err
		}

		skills, err := service.ListSkills()
		if err != nil {
			return err
		}

		return printJSON(skills)
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a skill's full instructions and resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := localService()
		if err != nil {
			return err
		}

		detail, err := service.GetSkill(args[0])
		if err != nil {
			return err
		}

		return printJSON(detail)
	},
}

var skillsRunCmd = &cobra.Command{
	Use:   "run <skill> <script>",
	Short: "Execute a skill script and print its result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := localService()
		if err != nil {
			return err
		}

		var params map[string]interface{}
		if runParams != "" {
			if err := json.Unmarshal([]byte(runParams), &params); err != nil {
				return fmt.Errorf("invalid --params JSON: %w", err)
			}
		}

		outcome, err := service.ExecuteSkillScript(cmd.Context(), args[0], args[1], params, runTimeout)
		if err != nil {
			if outcome != nil && outcome.Stderr != "" {
				fmt.Fprintln(os.Stderr, outcome.Stderr)
			}
			return err
		}

		return printJSON(outcome)
	},
}

func init() {
	skillsRunCmd.Flags().StringVar(&runParams, "params", "", "parameters as a JSON object")
	skillsRunCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "execution timeout override (e.g. 90s)")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsRunCmd)
	rootCmd.AddCommand(skillsCmd)
}

func localService() (*api.Service, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return initService(cfg)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
