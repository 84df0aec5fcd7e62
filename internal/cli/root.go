package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/zedarvates/storycore-grid/internal/config"
	"github.com/zedarvates/storycore-grid/internal/container"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"gopkg.in/yaml.v3"
)

// app carries state shared by the subcommands of one invocation
type app struct {
	cfgFile string
	output  string
	c       *container.Container
}

// NewRootCommand builds the gridopt command tree
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gridopt",
		Short:         "Grid format optimization for storyboard renders",
		Long:          `Recommends grid formats for a storyboard, checks the temporal coherence of linear sequences and scores rendered panels.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// keep stdout for command output
			logger.Logger.SetOutput(cmd.ErrOrStderr())
			gin.SetMode(gin.ReleaseMode)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.c != nil {
				return a.c.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(
		newFormatsCmd(a),
		newValidateCmd(a),
		newAnalyzeCmd(a),
		newRecommendCmd(a),
		newCoherenceCmd(a),
		newQualityCmd(a),
		newFeedbackCmd(a),
		newReportCmd(a),
	)
	return root
}

// Execute executes the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// container lazily builds the application container from the selected config
func (a *app) container(ctx context.Context) (*container.Container, error) {
	if a.c != nil {
		return a.c, nil
	}
	path := a.cfgFile
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.c = c
	return c, nil
}

func (a *app) print(w io.Writer, v interface{}) error {
	switch strings.ToLower(a.output) {
	case "yaml", "yml":
		// round trip through JSON so keys follow the json tags
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

// readInput decodes a YAML or JSON file; "-" reads stdin. Files without a
// .yaml or .yml extension are parsed as JSON.
func readInput(cmd *cobra.Command, path string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
