package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"support-agent/internal/integrations/paramstore"
	"support-agent/internal/intent"
	"support-agent/internal/repository"
	"support-agent/internal/usecase"
)

// App holds the wired components shared by every entry point.
type App struct {
	Config     Config
	Taxonomy   *intent.Taxonomy
	Classifier *intent.Classifier
	Store      *repository.Client
	Support    *usecase.SupportService
}

// New loads AWS configuration and wires the transcript store, taxonomy and support service.
func New(ctx context.Context, cfg Config) (*App, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}

	tax, err := taxonomyFromAWS(ctx, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	classifier, err := intent.NewClassifier(tax)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create classifier: %w", err)
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
	store, err := repository.New(dynamoClient, cfg.StateTable, repository.WithScanSegments(cfg.ScanSegments))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create transcript store: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	support, err := usecase.NewSupportService(classifier, store, usecase.Settings{
		MaxMessageLen: cfg.MaxMessageLen,
		HistoryLimit:  cfg.HistoryLimit,
		MaxSessions:   cfg.MaxSessions,
		Location:      loc,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create support service: %w", err)
	}

	return &App{
		Config:     cfg,
		Taxonomy:   tax,
		Classifier: classifier,
		Store:      store,
		Support:    support,
	}, nil
}

// ResolveTaxonomy loads the taxonomy on its own, without wiring the transcript
// store. AWS configuration is only loaded when TaxonomyParam is set.
func ResolveTaxonomy(ctx context.Context, cfg Config) (*intent.Taxonomy, error) {
	if cfg.TaxonomyParam == "" {
		return LoadTaxonomy(ctx, cfg, nil)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}
	return taxonomyFromAWS(ctx, cfg, awsCfg)
}

func taxonomyFromAWS(ctx context.Context, cfg Config, awsCfg aws.Config) (*intent.Taxonomy, error) {
	var params intent.Getter
	if cfg.TaxonomyParam != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create SSM client: %w", err)
		}
		params = ps
	}
	return LoadTaxonomy(ctx, cfg, params)
}

// LoadTaxonomy picks the taxonomy source: SSM parameter, then file, then the embedded default.
func LoadTaxonomy(ctx context.Context, cfg Config, params intent.Getter) (*intent.Taxonomy, error) {
	var (
		tax    *intent.Taxonomy
		source string
		err    error
	)
	switch {
	case cfg.TaxonomyParam != "":
		source = "ssm:" + cfg.TaxonomyParam
		tax, err = intent.LoadParameter(ctx, params, cfg.TaxonomyParam)
	case cfg.TaxonomyFile != "":
		source = "file:" + cfg.TaxonomyFile
		tax, err = intent.LoadFile(cfg.TaxonomyFile)
	default:
		source = "embedded"
		tax, err = intent.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load taxonomy from %s: %w", source, err)
	}
	slog.Info("intent taxonomy loaded", "source", source, "intents", len(tax.Definitions()))
	return tax, nil
}
