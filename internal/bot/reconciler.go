package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bracket/internal/exchange"
	"bracket/pkg/utils"
)

// ReconcilerConfig - тайминги цикла сверки
type ReconcilerConfig struct {
	Interval      time.Duration // период между проходами
	FetchTimeout  time.Duration // на выборку позиций и ордеров
	CancelTimeout time.Duration // на отмену одного ордера
}

// Reconciler - таймерный цикл, гарантирующий, что защитные условные
// ордера не переживают свою позицию.
//
// Каждый проход заново выводит сирот из живого состояния биржи,
// а не из содержимого трекера: так цикл самовосстанавливается после
// рестарта процесса и подбирает ордера, размещённые мимо этого
// сервиса. Проходы однополётные: пока один идёт, тики пропускаются
type Reconciler struct {
	client  exchange.Client
	tracker *BracketTracker
	logger  *utils.Logger
	cfg     ReconcilerConfig

	// CAS-guard вместо булевого флага: два тика не могут
	// одновременно увидеть false и пройти оба
	running atomic.Bool
}

// NewReconciler создаёт цикл сверки
func NewReconciler(client exchange.Client, tracker *BracketTracker, cfg ReconcilerConfig, logger *utils.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.CancelTimeout <= 0 {
		cfg.CancelTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = utils.L()
	}
	return &Reconciler{
		client:  client,
		tracker: tracker,
		logger:  logger.WithComponent("reconciler"),
		cfg:     cfg,
	}
}

// Run крутит цикл до отмены контекста.
// Первый проход выполняется сразу, не дожидаясь первого тика
func (r *Reconciler) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход сверки.
// Ошибки прохода проглатываются: у цикла нет вызывающего,
// которому их можно вернуть; неудача исправится следующим тиком
func (r *Reconciler) RunOnce(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		reconcilePassesTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer r.running.Store(false)

	start := time.Now()
	defer func() {
		reconcilePassDuration.Observe(time.Since(start).Seconds())
	}()

	positions, orders, err := r.fetchState(ctx)
	if err != nil {
		// Проход прерывается без мутации трекера
		reconcilePassesTotal.WithLabelValues("fetch_failed").Inc()
		r.logger.Warn("reconcile pass aborted", utils.Err(err))
		return
	}

	active := activePositionSet(positions)
	orphans := findOrphans(orders, active)

	if len(orphans) > 0 {
		orphansDetectedTotal.Add(float64(len(orphans)))
		r.cancelOrphans(ctx, orphans)
	}

	pruned := r.pruneTracker(active)
	trackedBrackets.Set(float64(r.tracker.Len()))
	reconcilePassesTotal.WithLabelValues("ok").Inc()

	if len(orphans) > 0 || pruned > 0 {
		r.logger.Info("reconcile pass finished",
			utils.Int("active_positions", len(active)),
			utils.Int("orphans", len(orphans)),
			utils.Int("pruned_records", pruned),
			utils.Latency(float64(time.Since(start).Milliseconds())))
	}
}

// fetchState забирает позиции и ордера параллельно.
// Ошибка любой выборки прерывает проход целиком
func (r *Reconciler) fetchState(ctx context.Context) ([]exchange.Position, []exchange.OpenOrder, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		positions []exchange.Position
		orders    []exchange.OpenOrder
		posErr    error
		ordErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		positions, posErr = r.client.GetPositions(fetchCtx)
	}()
	go func() {
		defer wg.Done()
		orders, ordErr = r.client.GetOpenOrders(fetchCtx)
	}()
	wg.Wait()

	if posErr != nil {
		return nil, nil, posErr
	}
	if ordErr != nil {
		return nil, nil, ordErr
	}
	return positions, orders, nil
}

// activePositionSet строит набор ключей живых позиций.
// Нулевое количество - закрытая позиция, в набор не входит
func activePositionSet(positions []exchange.Position) map[PositionKey]struct{} {
	active := make(map[PositionKey]struct{}, len(positions))
	for _, p := range positions {
		if p.Quantity.IsZero() {
			continue
		}
		// positionSide LONG/SHORT встречается только в hedge режиме,
		// BOTH разрешается по знаку количества в обоих режимах
		if key, ok := ResolvePositionKey(p.Symbol, p.PositionSide, p.Quantity, true); ok {
			active[key] = struct{}{}
		}
	}
	return active
}

// findOrphans отбирает условные закрывающие ордера, чья позиция
// отсутствует в активном наборе. Трекер здесь не участвует:
// сиротство выводится только из живого состояния биржи,
// поэтому чужие и потерянные при рестарте ордера тоже отменяются
func findOrphans(orders []exchange.OpenOrder, active map[PositionKey]struct{}) []exchange.OpenOrder {
	var orphans []exchange.OpenOrder
	for _, o := range orders {
		if !o.IsConditionalClose() {
			continue
		}
		key, ok := ResolveOrderKey(o, true)
		if !ok {
			continue
		}
		if _, live := active[key]; !live {
			orphans = append(orphans, o)
		}
	}
	return orphans
}

// cancelOrphans отменяет сирот параллельно и независимо:
// неудача одной отмены не мешает остальным. Ответ "ордера нет"
// считается успехом - цель достигнута. Провалившиеся отмены
// не запоминаются: следующий проход заново увидит ордер живым
func (r *Reconciler) cancelOrphans(ctx context.Context, orphans []exchange.OpenOrder) {
	var wg sync.WaitGroup
	for _, o := range orphans {
		wg.Add(1)
		go func(order exchange.OpenOrder) {
			defer wg.Done()

			cancelCtx, cancel := context.WithTimeout(ctx, r.cfg.CancelTimeout)
			defer cancel()

			err := r.client.CancelOrder(cancelCtx, order.Symbol, order.OrderID)
			switch {
			case err == nil:
				orderCancelsTotal.WithLabelValues("canceled").Inc()
				r.logger.Info("orphaned order canceled",
					utils.Symbol(order.Symbol),
					utils.OrderID(order.OrderID),
					utils.String("type", order.Type))
			case exchange.IsOrderGone(err):
				orderCancelsTotal.WithLabelValues("already_gone").Inc()
				r.logger.Debug("orphaned order already gone",
					utils.Symbol(order.Symbol),
					utils.OrderID(order.OrderID))
			default:
				orderCancelsTotal.WithLabelValues("failed").Inc()
				r.logger.Warn("orphan cancel failed, will retry next pass",
					utils.Symbol(order.Symbol),
					utils.OrderID(order.OrderID),
					utils.Err(err))
			}
		}(o)
	}
	wg.Wait()
}

// pruneTracker удаляет записи, чьи позиции больше не активны.
// Удаление не зависит от исхода отмен этого прохода: провалившаяся
// отмена повторится через живое состояние ордеров, а не через запись
func (r *Reconciler) pruneTracker(active map[PositionKey]struct{}) int {
	pruned := 0
	for _, record := range r.tracker.Snapshot() {
		if _, live := active[record.Key]; !live {
			r.tracker.Remove(record.Key)
			pruned++
		}
	}
	return pruned
}
