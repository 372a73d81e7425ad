package classfile

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TransformAll transforms models concurrently, at most limit at a time
// (limit <= 0 means no limit). factory is called once per class so no
// transform instance is shared between goroutines. The first failure cancels
// the remaining work; results are in input order.
func (cf *ClassFile) TransformAll(ctx context.Context, models []*ClassModel, factory func() ClassTransform, limit int) ([][]byte, error) {
	out := make([][]byte, len(models))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, m := range models {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := cf.Transform(m, factory())
			if err != nil {
				Logger().Debug("batch transform failed", zap.String("class", m.ThisClass), zap.Error(err))
				return err
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
