package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/ramp-bills/internal/config"
	"github.com/dvloznov/ramp-bills/internal/domain"
	bqinfra "github.com/dvloznov/ramp-bills/internal/infra/bigquery"
	"github.com/dvloznov/ramp-bills/internal/infra/redshift"
	"github.com/dvloznov/ramp-bills/internal/logger"
	"github.com/dvloznov/ramp-bills/internal/objectstore"
	"github.com/dvloznov/ramp-bills/internal/pipeline"
	"github.com/dvloznov/ramp-bills/internal/ramp"
	"github.com/dvloznov/ramp-bills/internal/schema"
	"github.com/dvloznov/ramp-bills/internal/warehouse"
)

func main() {
	log := logger.New()

	var (
		tokenFile    string
		envFile      string
		schemaFile   string
		endpoint     string
		objectURI    string
		dialect      string
		abortOnError bool
		dryRun       bool
		outDir       string
		previewRows  int
		timeout      time.Duration
	)

	flag.StringVar(&tokenFile, "token-file", ".env_access_ramp", "Credential store holding RAMP_API_TOKEN")
	flag.StringVar(&envFile, "env-file", ".env", "Env file with warehouse settings")
	flag.StringVar(&schemaFile, "schema", "", "Table mapping YAML (default: built-in ramp_bills mapping)")
	flag.StringVar(&endpoint, "endpoint", "", "Bills listing URL (overrides RAMP_BILLS_ENDPOINT)")
	flag.StringVar(&objectURI, "object-uri", "", "Where the parquet file is published (overrides RAMP_BILLS_OBJECT_URI)")
	flag.StringVar(&dialect, "dialect", "", "Warehouse dialect: redshift or bigquery (overrides WAREHOUSE_DIALECT)")
	flag.BoolVar(&abortOnError, "abort-on-error", false, "Stop at the first failed page or SQL statement")
	flag.BoolVar(&dryRun, "dry-run", false, "Fetch and shape, write the parquet file locally and print the SQL without touching the warehouse")
	flag.StringVar(&outDir, "out-dir", ".", "Directory for the parquet file in dry-run mode")
	flag.IntVar(&previewRows, "preview", pipeline.DefaultPreviewRows, "Rows to include in the table preview log")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: load-bills [flags] [dev|meddw]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	env, defaulted, err := config.ParseEnvironment(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	if defaulted {
		log.Info().Str("environment", string(env)).Msg("No environment given, using default")
	}

	tokenValues, err := config.NewEnvFile(tokenFile).Source()
	if err != nil {
		log.Fatal().Err(err).Str("file", tokenFile).Msg("Reading token file failed")
	}
	envValues, err := config.NewEnvFile(envFile).Source()
	if err != nil {
		log.Fatal().Err(err).Str("file", envFile).Msg("Reading env file failed")
	}
	src := config.Layered{config.OSEnv{}, tokenValues, envValues}

	settings, err := config.LoadSettings(src, env)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading settings failed")
	}

	log = logger.WithLevel(log, settings.LogLevel)
	log, runID := logger.ForRun(log, "load-bills")

	table := schema.RampBills()
	if schemaFile != "" {
		if table, err = schema.Load(schemaFile); err != nil {
			log.Fatal().Err(err).Msg("Loading table mapping failed")
		}
	}

	if dialect != "" {
		if err := settings.SetDialect(dialect); err != nil {
			log.Fatal().Err(err).Msg("Invalid -dialect")
		}
	}
	if endpoint == "" {
		endpoint = firstNonEmpty(settings.Endpoint, table.Endpoint, ramp.DefaultBillsEndpoint)
	}
	if objectURI == "" {
		objectURI = firstNonEmpty(settings.ObjectURI, table.ObjectURI)
	}
	if abortOnError {
		settings.FetchPolicy = domain.AbortOnError
		settings.SQLPolicy = domain.AbortOnError
	}

	var wh warehouse.Dialect
	var open warehouse.Opener
	switch settings.Dialect {
	case config.DialectRedshift:
		wh = warehouse.Redshift{IAMRole: settings.Redshift.IAMRole}
		open = redshift.Opener(settings.Redshift)
	case config.DialectBigQuery:
		wh = warehouse.BigQuery{ProjectID: settings.BigQuery.ProjectID}
		open = bqinfra.Opener(settings.BigQuery)
	default:
		log.Fatal().Str("dialect", settings.Dialect).Msg("Unknown warehouse dialect")
	}

	if !dryRun {
		if err := settings.ValidateWarehouse(src); err != nil {
			log.Fatal().Err(err).Msg("Warehouse settings incomplete")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("environment", string(env)).
		Str("endpoint", endpoint).
		Str("object_uri", objectURI).
		Str("dialect", wh.Name()).
		Str("fetch_policy", settings.FetchPolicy.String()).
		Str("sql_policy", settings.SQLPolicy.String()).
		Bool("dry_run", dryRun).
		Msg("Starting bills load")

	opts := pipeline.Options{
		Client:      ramp.NewClient(settings.Token),
		Endpoint:    endpoint,
		FetchPolicy: settings.FetchPolicy,
		Table:       table,
		Publisher:   objectstore.NewRouter(),
		ObjectURI:   objectURI,
		PreviewRows: previewRows,
	}

	if dryRun {
		loc, err := objectstore.ParseURI(objectURI)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid object URI")
		}
		opts.ObjectURI = filepath.Join(outDir, loc.Filename())
	} else {
		opts.Loader = &warehouse.Loader{
			Open:    open,
			Dialect: wh,
			Table:   table,
			Policy:  settings.SQLPolicy,
		}
	}

	state := &pipeline.RunState{}
	if err := pipeline.NewBillsLoadPipeline(opts).Execute(ctx, state); err != nil {
		log.Fatal().Err(err).Msg("Bills load failed")
	}

	if dryRun {
		for _, stmt := range warehouse.Plan(wh, table, objectURI) {
			fmt.Fprintf(os.Stdout, "-- %s\n%s\n\n", stmt.Kind, stmt.SQL)
		}
		fmt.Printf("Dry run %s: wrote %d rows to %s\n", runID, len(state.Table.Rows), opts.ObjectURI)
		return
	}

	if failed := state.Report.Failed(); len(failed) > 0 {
		fmt.Printf("Run %s: loaded %d rows into %s with %d failed statements\n", runID, len(state.Table.Rows), table.TargetTable, len(failed))
		return
	}
	fmt.Printf("Run %s: loaded %d rows into %s\n", runID, len(state.Table.Rows), table.TargetTable)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
