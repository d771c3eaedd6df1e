// Package app wires configuration, storage, the access layer and the HTTP
// handler for the periodic commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jacentio/periodic/config"
	"github.com/jacentio/periodic/elements"
	"github.com/jacentio/periodic/httpapi"
	"github.com/jacentio/periodic/metrics"
	"github.com/jacentio/periodic/store"
	"github.com/jacentio/periodic/store/memstore"
	"github.com/jacentio/periodic/store/sqldoc"
)

// App holds the long-lived components of a running process.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Docs     store.Documents
	Service  *elements.Service
	Registry *prometheus.Registry

	awsCfg *aws.Config
	closer io.Closer
}

// Open builds an App from cfg. The storage handle is opened once here and
// released by Close.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	docs, err := a.openDocuments(ctx)
	if err != nil {
		return nil, err
	}
	a.Docs = docs
	a.Service = elements.New(docs, logger)

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector())
		obs, err := metrics.NewPrometheus(a.Registry)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		a.Service.SetObserver(obs)
	}

	logger.InfoContext(ctx, "storage ready", "backend", cfg.Backend)
	return a, nil
}

// Handler returns the HTTP handler for the App.
func (a *App) Handler() http.Handler {
	opts := httpapi.Options{
		Logger:         a.Logger,
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
	}
	if a.Registry != nil {
		opts.Metrics = metrics.Handler(a.Registry)
	}
	return httpapi.NewHandler(a.Service, opts)
}

// S3 returns an S3 client sharing the App's AWS configuration.
func (a *App) S3(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Close releases the storage handle.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) openDocuments(ctx context.Context) (store.Documents, error) {
	switch a.Config.Backend {
	case config.BackendMemory:
		return memstore.New(), nil
	case config.BackendSQLite:
		s, err := sqldoc.Open(ctx, sqldoc.SQLite, a.Config.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.closer = s
		return s, nil
	case config.BackendPostgres:
		s, err := sqldoc.Open(ctx, sqldoc.Postgres, a.Config.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closer = s
		return s, nil
	case config.BackendDynamoDB:
		return a.openDynamoDB(ctx)
	default:
		return nil, fmt.Errorf("app: unknown backend %q", a.Config.Backend)
	}
}

func (a *App) openDynamoDB(ctx context.Context) (*store.Store, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	dc := a.Config.DynamoDB
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if dc.Endpoint != "" {
			o.BaseEndpoint = aws.String(dc.Endpoint)
		}
	})
	s := store.NewWithRegistry(client, StoreConfig(dc), Indexes(dc))
	logIndexes(ctx, a.Logger, s)
	return s, nil
}

func logIndexes(ctx context.Context, logger *slog.Logger, s *store.Store) {
	for _, idx := range s.Registry().AllIndexes() {
		logger.InfoContext(ctx, "secondary index registered", "field", idx.Field, "index", idx.IndexName)
	}
}

func (a *App) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	dc := a.Config.DynamoDB
	var opts []func(*awsconfig.LoadOptions) error
	if dc.Region != "" {
		opts = append(opts, awsconfig.WithRegion(dc.Region))
	}
	if dc.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(dc.AccessKeyID, dc.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("app: load aws config: %w", err)
	}
	a.awsCfg = &awsCfg
	return awsCfg, nil
}

// StoreConfig maps the DynamoDB section of the configuration onto the
// store's settings.
func StoreConfig(dc config.DynamoDBConfig) store.Config {
	cfg := store.DefaultConfig()
	if dc.Table != "" {
		cfg.Table = dc.Table
	}
	if dc.ScanSegments > 0 {
		cfg.ScanSegments = dc.ScanSegments
	}
	return cfg
}

// Indexes builds the secondary index registry from the configuration, in
// field name order.
func Indexes(dc config.DynamoDBConfig) *store.Registry {
	reg := store.NewRegistry()
	fields := make([]string, 0, len(dc.Indexes))
	for f := range dc.Indexes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		reg.Register(store.Index{Field: f, IndexName: dc.Indexes[f]})
	}
	return reg
}
