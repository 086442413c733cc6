package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chargingcosts/internal/app"
	"chargingcosts/internal/config"
	"chargingcosts/internal/report"
)

// NewRootCommand builds the charging-costs command.
func NewRootCommand(logger *zap.Logger) *cobra.Command {
	var (
		quarter    string
		charger    string
		pageSize   int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "charging-costs",
		Short: "Report EV charging electricity costs per charger for a quarter",
		Long: `charging-costs prices every charging session recorded by the Zaptec cloud
against hourly spot prices and prints a per-charger cost breakdown for the
selected quarter. Q4 always means the previous year's Q4.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if pageSize > 0 {
				cfg.Report.PageSize = pageSize
			}
			if err := cfg.EnsureCredentials(configPath); err != nil {
				return err
			}

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Run(cmd.Context(), app.RunOptions{
				Quarter: quarter,
				Charger: charger,
				Out:     cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&quarter, "quarter", "q", "Q2", "reporting quarter (Q1-Q4; Q4 means last year's Q4)")
	cmd.Flags().StringVarP(&charger, "charger", "c", report.FilterAll, "charger name to report, or \"all\"")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "history page size (default from config)")
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "config file location")

	return cmd
}
