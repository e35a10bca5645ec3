package orchestrator

import (
	"context"

	"maestro/internal/config"
	"maestro/internal/executor"
	"maestro/internal/feed"
	"maestro/internal/model"
	"maestro/internal/optimizer"
	"maestro/internal/pipeline"
	"maestro/internal/strategy"

	"github.com/yanun0323/errors"
)

// Factory constructs the five collaborators for one run. It either
// returns a complete, valid set or an error; a half-built pipeline
// never escapes.
type Factory func(ctx context.Context) (pipeline.Collaborators, error)

// DefaultFactory builds the reference collaborators from a resolved
// config: a synthetic or fixture feed, the momentum model, the
// threshold generator, the feedback optimizer and the paper executor.
func DefaultFactory(loaded config.Loaded) Factory {
	return func(ctx context.Context) (pipeline.Collaborators, error) {
		var (
			data pipeline.DataProcessor
			err  error
		)
		switch loaded.Feed.Kind {
		case config.FeedFixture:
			data, err = feed.NewFixture(loaded.Registry, loaded.Feed.FixturePath)
		default:
			data, err = feed.NewSynthetic(loaded.Registry, loaded.Feed.Synthetic)
		}
		if err != nil {
			return pipeline.Collaborators{}, errors.Wrap(err, "construct data processor")
		}

		momentum, err := model.NewMomentum(loaded.Model)
		if err != nil {
			return pipeline.Collaborators{}, errors.Wrap(err, "construct model builder")
		}

		threshold, err := strategy.NewThreshold(loaded.Registry, loaded.Strategy)
		if err != nil {
			return pipeline.Collaborators{}, errors.Wrap(err, "construct strategy generator")
		}

		feedback, err := optimizer.NewFeedback(loaded.Optimizer)
		if err != nil {
			return pipeline.Collaborators{}, errors.Wrap(err, "construct optimizer")
		}

		paper, err := executor.NewPaper(loaded.Executor, loaded.Risk)
		if err != nil {
			return pipeline.Collaborators{}, errors.Wrap(err, "construct executor")
		}

		return pipeline.Collaborators{
			Data:      data,
			Model:     momentum,
			Strategy:  threshold,
			Optimizer: feedback,
			Executor:  paper,
		}, nil
	}
}
