package invite

import (
	"context"
	"log/slog"
)

// sagaStep は招待ワークフローの1ステップ。
// runが失敗した場合、それまでに完了したステップのcompensateが逆順で実行される。
type sagaStep struct {
	name string
	run  func(ctx context.Context) error
	// compensate はステップ完了後に後続が失敗した際の巻き戻し処理。
	// 不要なステップはnilのままでよい。
	compensate func(ctx context.Context) error
}

// saga は（処理, 補償）ペアの列を順次実行する。
// 分散トランザクションの代わりに、失敗時は完了済みステップの補償を
// 逆順で実行してからエラーを返す。
type saga struct {
	logger *slog.Logger
	steps  []sagaStep
}

func newSaga(logger *slog.Logger) *saga {
	return &saga{logger: logger}
}

// addStep はステップを末尾に追加する。
func (s *saga) addStep(step sagaStep) {
	s.steps = append(s.steps, step)
}

// run は全ステップを順に実行する。
// あるステップが失敗すると、完了済みステップの補償を逆順で実行し、
// 失敗したステップのエラーをそのまま返す。
// 補償処理自体の失敗はログに記録するのみで、報告されるエラーは変わらない。
func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.run(ctx); err != nil {
			s.compensate(ctx, i-1)
			return err
		}
	}
	return nil
}

// compensate はsteps[0..last]の補償を逆順で実行する。
func (s *saga) compensate(ctx context.Context, last int) {
	for i := last; i >= 0; i-- {
		step := s.steps[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.logger.Error("補償処理に失敗しました",
				slog.String("step", step.name),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Info("補償処理を実行しました",
				slog.String("step", step.name),
			)
		}
	}
}
