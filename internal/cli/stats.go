package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository"
	"github.com/restopulse/review-server/internal/service"
	dbbuilder "github.com/restopulse/review-server/pkg/database"
)

var (
	statsPeriod      string
	statsSource      string
	statsGranularity string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print an aggregate report for the stored reviews",
	Long: `Stats prints the rating overview, a bucketed time series and the
theme breakdown for the reviews in the database, optionally scoped to a
period preset and source.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "all_time", "Period preset (all_time, last_30d, last_90d, last_12m)")
	statsCmd.Flags().StringVarP(&statsSource, "source", "s", "", "Restrict to a single source")
	statsCmd.Flags().StringVarP(&statsGranularity, "granularity", "g", "month", "Time series granularity (day, week, month, year)")
}

func runStats(cmd *cobra.Command, args []string) error {
	preset := pipeline.PeriodPreset(strings.ToLower(statsPeriod))
	if !preset.IsValid() || preset == pipeline.PeriodCustom {
		return fmt.Errorf("unknown period preset %q", statsPeriod)
	}
	gran := pipeline.Granularity(strings.ToLower(statsGranularity))
	if !gran.IsValid() {
		return fmt.Errorf("unknown granularity %q", statsGranularity)
	}

	state := pipeline.FilterState{
		Rating: pipeline.RatingAll,
		Period: pipeline.PeriodFilter{Preset: preset},
		Source: statsSource,
	}

	svc, cleanup, err := openAnalyticsService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	overview, err := svc.GetOverview(ctx, state)
	if err != nil {
		return fmt.Errorf("compute overview: %w", err)
	}

	fmt.Printf("Reviews: %d (period %s", overview.TotalReviews, preset)
	if statsSource != "" {
		fmt.Printf(", source %s", statsSource)
	}
	fmt.Println(")")
	fmt.Printf("Average rating: %.2f (%s)\n", overview.AverageRating, overview.Trend)
	fmt.Printf("  Positive: %5.1f%%\n", overview.PositivePercentage)
	fmt.Printf("  Neutral:  %5.1f%%\n", overview.NeutralPercentage)
	fmt.Printf("  Negative: %5.1f%%\n", overview.NegativePercentage)

	series, err := svc.GetTimeSeries(ctx, state, gran)
	if err != nil {
		return fmt.Errorf("compute time series: %w", err)
	}
	if len(series.Points) > 0 {
		fmt.Printf("\nPer %s:\n", gran)
		for _, b := range series.Points {
			count := b.PositiveCount + b.NeutralCount + b.NegativeCount
			fmt.Printf("  %-10s %4d reviews  avg %.2f\n", b.Period, count, b.AverageRating)
		}
	}

	themes, err := svc.GetThemeBreakdown(ctx, state)
	if err != nil {
		return fmt.Errorf("compute theme breakdown: %w", err)
	}
	if len(themes) > 0 {
		fmt.Println("\nThemes:")
		for _, ts := range themes {
			fmt.Printf("  %-10s %4d (%5.1f%%, cumulative %5.1f%%)\n",
				ts.Theme, ts.Count, ts.Percentage, ts.CumulativePercentage)
		}
	}

	causes, err := svc.GetRootCauses(ctx, state)
	if err != nil {
		return fmt.Errorf("compute root causes: %w", err)
	}
	for _, rc := range causes {
		fmt.Printf("\nRoot cause (%s, %d negative): %s\n", rc.Theme, rc.NegativeCount, rc.Suggestion)
	}

	return nil
}

func openAnalyticsService() (*service.AnalyticsService, func(), error) {
	db, err := dbbuilder.New(
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(dbPath),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	repo := repository.NewReviewRepository(db)
	svc := service.NewAnalyticsService(repo, zap.NewNop())
	return svc, func() { db.Close() }, nil
}
