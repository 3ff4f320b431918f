package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/ingest"
	"github.com/tokosmart/restock-backend/internal/model"
	"github.com/tokosmart/restock-backend/internal/service"
	"github.com/urfave/cli/v2"
)

func newModelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "model",
		Usage:   "Path to the restock model artifact",
		Value:   "./artifacts/model_restock.json",
		EnvVars: []string{"MODEL_ARTIFACT_PATH"},
	}
}

func newForecastFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "forecast-model",
		Usage:   "Path to the daily sales forecast artifact",
		Value:   "./artifacts/model_prediksi.json",
		EnvVars: []string{"MODEL_FORECAST_PATH"},
	}
}

func newItemCodesFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "item-codes",
		Usage:   "Path to the item code map artifact",
		Value:   "./artifacts/item_code_map.json",
		EnvVars: []string{"MODEL_ITEM_CODE_PATH"},
	}
}

func newOutputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "output",
		Usage: "Output file (.csv or .xlsx); prints a summary when omitted",
	}
}

func newTimeoutFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "timeout",
		Usage: "Deadline for the pipeline run in seconds (0 = none)",
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "restock",
		Usage: "Weekly restock recommendations from sales and stock data",
		Commands: []*cli.Command{
			{
				Name:      "predict",
				Usage:     "Score a full sales history with the restock model",
				ArgsUsage: "<history file>",
				Flags: []cli.Flag{
					newModelFlag(), newForecastFlag(), newItemCodesFlag(),
					newOutputFlag(), newTimeoutFlag(),
				},
				Action: runPredict,
			},
			{
				Name:      "project",
				Usage:     "Project 7-day demand from a current stock file",
				ArgsUsage: "<current stock file>",
				Flags: []cli.Flag{
					newModelFlag(), newForecastFlag(), newItemCodesFlag(),
					newOutputFlag(), newTimeoutFlag(),
				},
				Action: runProject,
			},
			{
				Name:  "watch",
				Usage: "Watch an inbox directory and project every dropped stock file",
				Flags: []cli.Flag{
					newModelFlag(), newForecastFlag(), newItemCodesFlag(),
					&cli.StringFlag{
						Name:    "inbox",
						Usage:   "Directory to watch for stock files",
						Value:   "./data/inbox",
						EnvVars: []string{"APP_INBOX_DIR"},
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Usage:   "Directory recommendation CSVs are written to",
						Value:   "./data/output",
						EnvVars: []string{"APP_OUTPUT_DIR"},
					},
				},
				Action: runWatch,
			},
			{
				Name:  "runs",
				Usage: "List persisted recommendation runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func buildService(c *cli.Context) (*service.RestockService, error) {
	restockModel, err := model.Load(c.String("model"))
	if err != nil {
		return nil, err
	}
	forecastModel, err := model.Load(c.String("forecast-model"))
	if err != nil {
		return nil, err
	}
	itemCodes, err := model.LoadItemCodes(c.String("item-codes"))
	if err != nil {
		return nil, err
	}
	return service.NewRestockService(
		restockModel.Forest, forecastModel.Forest, itemCodes, 0, nil, nil,
	), nil
}

func runContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if secs := c.Int("timeout"); secs > 0 {
		return context.WithTimeout(c.Context, time.Duration(secs)*time.Second)
	}
	return context.WithCancel(c.Context)
}

func runPredict(c *cli.Context) error {
	return runPipeline(c, func(ctx context.Context, svc *service.RestockService, t *dataset.Table) (*domain.RecommendationSet, error) {
		return svc.PredictFromHistory(ctx, t)
	})
}

func runProject(c *cli.Context) error {
	return runPipeline(c, func(ctx context.Context, svc *service.RestockService, t *dataset.Table) (*domain.RecommendationSet, error) {
		return svc.ProjectWeekAhead(ctx, t)
	})
}

func runPipeline(
	c *cli.Context,
	run func(context.Context, *service.RestockService, *dataset.Table) (*domain.RecommendationSet, error),
) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file argument")
	}

	svc, err := buildService(c)
	if err != nil {
		return err
	}

	table, err := dataset.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	ctx, cancel := runContext(c)
	defer cancel()

	set, err := run(ctx, svc, table)
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := service.ResultTable(set).WriteFile(out); err != nil {
			return err
		}
		fmt.Printf("wrote %d recommendations to %s\n", len(set.Items), out)
		return nil
	}

	for _, item := range set.Items {
		fmt.Printf("%-30s stock=%-5d demand=%-5d restock=%d\n",
			item.ItemName, item.CurrentStock, item.WeeklyDemand, item.Restock)
	}
	fmt.Printf("total restock: %d units across %d items\n", set.TotalRestock(), len(set.Items))
	return nil
}

func runWatch(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher := ingest.NewWatcher(c.String("inbox"), c.String("output-dir"), svc)
	return watcher.Run(ctx)
}

func runList(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(c.Context,
		`SELECT id, pipeline, item_count, total_qty, generated_at
		 FROM recommendation_runs
		 ORDER BY generated_at DESC
		 LIMIT $1`, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run domain.RecommendationRun
		if err := rows.Scan(&run.ID, &run.Pipeline, &run.ItemCount, &run.TotalQty, &run.GeneratedAt); err != nil {
			return fmt.Errorf("failed to scan run: %w", err)
		}
		fmt.Printf("%s  %-10s  items=%-4d  total=%-5d  %s\n",
			run.ID, run.Pipeline, run.ItemCount, run.TotalQty,
			run.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	return rows.Err()
}
