package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ogulcanaydogan/qdash/internal/config"
	"github.com/ogulcanaydogan/qdash/internal/dataset"
	"github.com/ogulcanaydogan/qdash/internal/forest"
	"github.com/ogulcanaydogan/qdash/internal/hash"
	"github.com/ogulcanaydogan/qdash/internal/metrics"
	"github.com/ogulcanaydogan/qdash/internal/payload"
	"github.com/ogulcanaydogan/qdash/pkg/types"
)

var ErrNondeterministic = errors.New("determinism check failed")

type Options struct {
	Config           config.DataConfig
	DeterminismCheck int
	Client           *http.Client
}

type Result struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	PayloadPath string         `json:"payload_path"`
	Digest      string         `json:"payload_digest"`
	Rows        int            `json:"rows"`
	TrainRows   int            `json:"train_rows"`
	TestRows    int            `json:"test_rows"`
	Classes     []int          `json:"classes"`
	Report      metrics.Report `json:"report"`
	Forest      forest.Summary `json:"forest"`
	Payload     types.Payload  `json:"-"`
}

type scored struct {
	split   dataset.Split
	payload types.Payload
	report  metrics.Report
	forest  forest.Summary
}

// RunData fetches the dataset, trains the forest and writes the payload.
// The payload file is only written once every step has succeeded.
func RunData(ctx context.Context, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	res := Result{RunID: uuid.NewString(), Source: cfg.DatasetURL, PayloadPath: cfg.PayloadPath}
	logger = logger.With(zap.String("run_id", res.RunID))

	fetchCtx := ctx
	if cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
	}
	sep := ';'
	if r := []rune(cfg.Separator); len(r) > 0 {
		sep = r[0]
	}
	logger.Info("loading dataset", zap.String("source", cfg.DatasetURL))
	ds, err := dataset.Fetch(fetchCtx, cfg.DatasetURL, dataset.LoadOptions{
		Separator:    sep,
		TargetColumn: cfg.TargetColumn,
		Client:       opts.Client,
	})
	if err != nil {
		return Result{}, err
	}
	res.Rows = ds.Len()
	res.Classes = ds.Classes()
	logger.Info("dataset loaded",
		zap.Int("rows", ds.Len()),
		zap.Int("features", ds.NumFeatures()),
		zap.Ints("classes", res.Classes))

	first, err := trainAndScore(ctx, ds, cfg, logger)
	if err != nil {
		return Result{}, err
	}
	digest, _, err := hash.DigestJSON(first.payload)
	if err != nil {
		return Result{}, err
	}
	for i := 1; i < opts.DeterminismCheck; i++ {
		again, err := trainAndScore(ctx, ds, cfg, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
		if err != nil {
			return Result{}, err
		}
		next, _, err := hash.DigestJSON(again.payload)
		if err != nil {
			return Result{}, err
		}
		if next != digest {
			return Result{}, fmt.Errorf("%w: run %d produced %s, want %s", ErrNondeterministic, i+1, next, digest)
		}
		logger.Debug("determinism run matched", zap.Int("run", i+1), zap.String("digest", next))
	}

	if err := payload.Write(cfg.PayloadPath, first.payload); err != nil {
		return Result{}, err
	}
	res.TrainRows = len(first.split.Train)
	res.TestRows = len(first.split.Test)
	res.Report = first.report
	res.Forest = first.forest
	res.Payload = first.payload
	res.Digest = digest
	logger.Info("payload written",
		zap.String("path", cfg.PayloadPath),
		zap.Int("test_cases", len(first.payload.TestCases)),
		zap.String("digest", digest))
	return res, nil
}

func trainAndScore(ctx context.Context, ds *dataset.Dataset, cfg config.DataConfig, logger *zap.Logger) (scored, error) {
	split, err := dataset.StratifiedSplit(ds.Y, cfg.TestSize, cfg.Seed)
	if err != nil {
		return scored{}, err
	}
	logger.Info("data split", zap.Int("train", len(split.Train)), zap.Int("test", len(split.Test)))

	xTrain, yTrain := ds.Select(split.Train)
	xTest, yTest := ds.Select(split.Test)
	model, err := forest.Fit(ctx, xTrain, yTrain, forest.Options{
		Estimators:      cfg.Estimators,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSplit,
		Seed:            cfg.Seed,
	})
	if err != nil {
		return scored{}, err
	}
	summary := model.Summary()
	logger.Info("model trained",
		zap.Int("trees", summary.Trees),
		zap.Float64("mean_depth", summary.MeanDepth),
		zap.Int("max_depth", summary.MaxDepth))

	report, err := metrics.Classify(yTest, model.PredictBatch(xTest))
	if err != nil {
		return scored{}, err
	}
	p, err := payload.Build(model, xTest, yTest, cfg.Decimals)
	if err != nil {
		return scored{}, err
	}
	return scored{split: split, payload: p, report: report, forest: summary}, nil
}
