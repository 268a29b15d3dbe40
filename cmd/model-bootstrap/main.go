// Command model-bootstrap trains the closing-probability model on
// synthetic data and persists the artifacts, then exits. Intended for
// fresh deployments so the first scoring call does not run on the
// rule-based baseline.
package main

import (
	"context"
	"flag"
	"time"

	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"
)

func main() {
	samples := flag.Int("samples", 0, "synthetic sample count (default from MODEL_SYNTHETIC_SAMPLES)")
	positiveRate := flag.Float64("positive-rate", 0, "target closed-label rate (default from MODEL_SYNTHETIC_POSITIVE_RATE)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed for reproducible runs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting model bootstrap", "dir", cfg.ModelDir)

	if *samples <= 0 {
		*samples = cfg.GetSyntheticSamples()
	}
	if *positiveRate <= 0 || *positiveRate >= 1 {
		*positiveRate = cfg.GetSyntheticPositiveRate()
	}

	engineer := features.NewEngineer(nil, log)
	mdl := model.New(cfg.GetModelDir(), engineer, log)

	data := model.GenerateSyntheticTrainingData(*samples, *positiveRate, *seed)
	metrics, err := mdl.Train(context.Background(), data, model.TrainOptions{RandomState: *seed})
	if err != nil {
		log.Error("training failed", "error", err)
		panic("training failed: " + err.Error())
	}

	log.Info("model bootstrap complete",
		"samples", *samples,
		"positive_rate", *positiveRate,
		"accuracy", metrics.Accuracy,
		"auc", metrics.AUCScore,
	)
}
