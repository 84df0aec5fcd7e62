package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported grid formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(cmd.OutOrStdout(), strategy.Specs())
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FORMAT",
		Short: "Check whether a grid format is supported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			v := c.Service().ValidateFormat(args[0])
			if err := a.print(cmd.OutOrStdout(), v); err != nil {
				return err
			}
			if !v.IsValid {
				return fmt.Errorf("%s", v.ErrorMessage)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var projectFile string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Derive the content profile of a storyboard project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var project models.ProjectData
			if err := readInput(cmd, projectFile, &project); err != nil {
				return err
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), c.Service().AnalyzeContent(project))
		},
	}
	cmd.Flags().StringVarP(&projectFile, "project", "p", "", "project file (YAML or JSON, - for stdin)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newRecommendCmd(a *app) *cobra.Command {
	var (
		projectFile string
		prefsFile   string
		formats     []string
		manual      string
		maxTime     float64
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend the grid format for a storyboard project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var project models.ProjectData
			if err := readInput(cmd, projectFile, &project); err != nil {
				return err
			}

			prefs := models.DefaultPreferences()
			if prefsFile != "" {
				if err := readInput(cmd, prefsFile, &prefs); err != nil {
					return err
				}
			}
			if len(formats) > 0 {
				prefs.PreferredFormats = parseFormatList(formats)
			}
			if manual != "" {
				prefs.AutoFormatSelection = false
				prefs.PreferredFormats = append(parseFormatList([]string{manual}), prefs.PreferredFormats...)
			}
			if cmd.Flags().Changed("max-time") {
				prefs.MaxProcessingTime = &maxTime
			}

			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := c.Service().Recommend(cmd.Context(), models.RecommendRequest{
				Project:     &project,
				Preferences: &prefs,
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVarP(&projectFile, "project", "p", "", "project file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&prefsFile, "preferences", "", "format preferences file (YAML or JSON)")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "restrict the candidate formats, e.g. 1x3,1x4")
	cmd.Flags().StringVar(&manual, "manual", "", "skip automatic selection and use this format")
	cmd.Flags().Float64Var(&maxTime, "max-time", 0, "maximum acceptable processing time in seconds")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// parseFormatList keeps the raw text of unknown entries so preference
// validation can name them
func parseFormatList(raw []string) []models.GridFormat {
	out := make([]models.GridFormat, 0, len(raw))
	for _, r := range raw {
		if f, ok := models.ParseGridFormat(r); ok {
			out = append(out, f)
		} else {
			out = append(out, models.GridFormat(r))
		}
	}
	return out
}

func newCoherenceCmd(a *app) *cobra.Command {
	var (
		format     string
		panelsFile string
		optimize   bool
	)
	cmd := &cobra.Command{
		Use:   "coherence",
		Short: "Analyze the temporal coherence of a linear panel sequence",
		Long: `Reads a JSON array of panel feature summaries and reports the temporal
coherence of the sequence. With --optimize the weak transitions are
smoothed and the adjusted panels are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var panels []models.Panel
			if err := readInput(cmd, panelsFile, &panels); err != nil {
				return err
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			req := models.CoherenceRequest{Format: format, Panels: panels}
			if optimize {
				res, err := c.Service().OptimizeTransitions(cmd.Context(), req)
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), res)
			}

			res, err := c.Service().AnalyzeCoherence(cmd.Context(), req)
			if err != nil {
				// the filled analysis explains a rejected sequence
				if res.Format != "" {
					_ = a.print(cmd.OutOrStdout(), res)
				}
				return err
			}
			return a.print(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "grid format of the sequence")
	cmd.Flags().StringVar(&panelsFile, "panels", "", "panel features file (JSON, - for stdin)")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "smooth weak transitions")
	_ = cmd.MarkFlagRequired("format")
	_ = cmd.MarkFlagRequired("panels")
	return cmd
}

func newQualityCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "quality SOURCE...",
		Short: "Score rendered panels fetched from http(s), file or azblob sources",
		Long: `Each SOURCE is a panel location, optionally prefixed with an id:
  gridopt quality -f 1x3 opening=https://cdn.example.com/p1.png file:///shots/p2.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			report, err := c.Service().AnalyzeQuality(cmd.Context(), models.QualityRequest{
				Format: format,
				Panels: parsePanelSources(args),
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "grid format of the panels")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

// parsePanelSources splits optional "id=" prefixes off panel locations
func parsePanelSources(args []string) []models.PanelSource {
	out := make([]models.PanelSource, 0, len(args))
	for _, arg := range args {
		src := models.PanelSource{URL: arg}
		if id, rest, ok := strings.Cut(arg, "="); ok && !strings.Contains(id, "/") && !strings.Contains(id, ":") {
			src.ID, src.URL = id, rest
		}
		out = append(out, src)
	}
	return out
}

func newFeedbackCmd(a *app) *cobra.Command {
	var analysisFile string
	cmd := &cobra.Command{
		Use:   "feedback FORMAT QUALITY",
		Short: "Record the observed quality (0-100) of a rendered format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quality %q: %w", args[1], err)
			}
			var analysis models.ContentAnalysis
			if analysisFile != "" {
				if err := readInput(cmd, analysisFile, &analysis); err != nil {
					return err
				}
			}
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			update, err := c.Service().RecordFeedback(cmd.Context(), models.FeedbackRequest{
				Format:        args[0],
				ActualQuality: actual,
				Analysis:      analysis,
			})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), update)
		},
	}
	cmd.Flags().StringVar(&analysisFile, "analysis", "", "content analysis the prediction was made for (JSON)")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "report performance|quality",
		Short:     "Print the recorded performance or quality history",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"performance", "quality"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			if args[0] == "performance" {
				return a.print(cmd.OutOrStdout(), c.Service().PerformanceReport())
			}
			return a.print(cmd.OutOrStdout(), c.Service().QualityReport())
		},
	}
}
