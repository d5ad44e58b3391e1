package service

import (
	"context"
	"net/url"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/aggregate"
	apperrors "github.com/juancollazo-ch/wbuy-order-resolver-service/internal/errors"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/metrics"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/models"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/pagination"
)

// StopWindowBoundary: se recorrió la página de anticipo tras cruzar el inicio de la ventana
const StopWindowBoundary = "window_boundary"

// WindowResult es el listado deduplicado y filtrado de una ventana de fechas.
type WindowResult struct {
	Window   models.DateWindow
	Records  []models.OrderRecord
	Count    int
	Strategy *pagination.Strategy
	// Partitions respeta el orden de los status pedidos
	Partitions []PartitionReport
	// StatusFallback indica que el barrido por status no trajo nada y se repitió sin filtro
	StatusFallback bool
	ScanUnits      int
	Attempts       []models.Attempt
}

// PartitionReport resume el recorrido de una partición por status ("" = sin filtro).
type PartitionReport struct {
	Status  string `json:"status,omitempty"`
	Pages   int    `json:"pages"`
	Fetched int    `json:"fetched"`
	Records int    `json:"records"`
	Kept    int    `json:"kept"`
	Stop    string `json:"stop"`
	Error   string `json:"error,omitempty"`
}

type partition struct {
	report  PartitionReport
	records []models.OrderRecord
	failure error
}

// ResolveByDateWindow lista los pedidos creados dentro de window.
//
// Con statuses explícitos se barre exactamente esa lista. Sin ellos se barre la
// lista por defecto y, si no trae ningún registro, se repite una vez sin filtro.
// Cada partición termina en su primera página fallida; 401/403 aborta todo.
//
// El anticipo de una página tras cruzar el inicio de la ventana supone que el
// upstream devuelve los pedidos en orden de fecha descendente.
func (s *OrderService) ResolveByDateWindow(
	ctx context.Context,
	window models.DateWindow,
	statuses []string,
	opts ScanOptions,
) (WindowResult, error) {
	ctx = logging.WithMode(ctx, ModeDateWindow)
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	res := WindowResult{Window: window, Records: []models.OrderRecord{}}
	if !window.Valid() {
		return res, apperrors.ErrValidation("from must not be after to", nil)
	}
	if err := s.requireToken(); err != nil {
		return res, s.fail(ModeDateWindow, err)
	}
	opts = opts.withDefaults(s.cfg)

	probed, err := s.prober.Probe(ctx)
	if err != nil {
		res.Attempts = probed.Attempts
		return res, s.fail(ModeDateWindow, err)
	}
	if !probed.Found() {
		res.Attempts = probed.Attempts
		s.doneWindow(res)
		return res, nil
	}
	shape := *probed.Shape

	disc, err := s.discoverer.Discover(ctx, shape)
	if err != nil {
		return res, s.fail(ModeDateWindow, err)
	}
	strategy := disc.Strategy.WithSize(opts.PageSize)
	res.Strategy = &strategy

	explicit := len(statuses) > 0
	if !explicit {
		statuses = s.cfg.DefaultStatuses
	}
	if len(statuses) == 0 {
		statuses = []string{""}
	}

	parts, err := s.sweep(ctx, shape, strategy, window, statuses, opts.MaxScanUnits)
	if err != nil {
		return res, s.fail(ModeDateWindow, err)
	}

	if !explicit && statuses[0] != "" && fetchedRecords(parts) == 0 {
		logger.Info("status sweep returned no records, retrying without status filter")
		fallback, err := s.sweep(ctx, shape, strategy, window, []string{""}, opts.MaxScanUnits)
		if err != nil {
			return res, s.fail(ModeDateWindow, err)
		}
		parts = append(parts, fallback...)
		res.StatusFallback = true
	}

	var failures error
	fetched := 0
	batches := make([][]models.OrderRecord, 0, len(parts))
	for _, p := range parts {
		res.Partitions = append(res.Partitions, p.report)
		res.ScanUnits += p.report.Pages
		fetched += p.report.Fetched
		failures = multierr.Append(failures, p.failure)
		batches = append(batches, p.records)
	}

	if fetched == 0 && hasRetryable(failures) {
		return res, s.fail(ModeDateWindow,
			apperrors.ErrUpstreamUnavailable(0, "no page could be fetched from upstream", failures))
	}
	if failures != nil {
		logger.Warn("some partitions ended on a failed page",
			zap.Int("failed_partitions", len(multierr.Errors(failures))),
			zap.Error(failures),
		)
	}

	merged := aggregate.Merge(batches, &window)
	res.Records, res.Count = merged.Records, merged.Count

	logger.Info("date window resolved",
		zap.String("window", window.String()),
		zap.Int("count", res.Count),
		zap.Int("partitions", len(res.Partitions)),
		zap.Int("scan_units", res.ScanUnits),
		zap.Bool("status_fallback", res.StatusFallback),
	)
	s.doneWindow(res)
	return res, nil
}

// sweep recorre las particiones con el pool y devuelve los resultados en el
// mismo orden que statuses.
func (s *OrderService) sweep(
	ctx context.Context,
	shape models.RequestShape,
	strategy pagination.Strategy,
	window models.DateWindow,
	statuses []string,
	maxUnits int,
) ([]partition, error) {
	statusParam := s.cfg.ProbeMenu().StatusParam
	parts := make([]partition, len(statuses))

	err := s.partitions.Run(ctx, len(statuses), func(ctx context.Context, i int) error {
		status := statuses[i]
		var extra url.Values
		if status != "" && statusParam != "" {
			extra = url.Values{statusParam: {status}}
		}

		p := partition{report: PartitionReport{Status: status}}
		crossed := false
		rep, err := s.walk(ctx, shape, strategy, extra, maxUnits, func(records []models.OrderRecord) bool {
			lookahead := crossed
			for _, rec := range records {
				if window.Contains(rec.Date) {
					p.records = append(p.records, rec)
				}
				if rec.Date != nil && rec.Date.Before(window.From) {
					crossed = true
				}
			}
			return lookahead
		})
		if err != nil {
			return err
		}

		p.report.Pages = rep.Units
		p.report.Fetched = rep.Fetched
		p.report.Records = rep.Records
		p.report.Kept = len(p.records)
		p.report.Stop = rep.Stop
		if rep.Stop == StopVisitor {
			p.report.Stop = StopWindowBoundary
		}
		if rep.Failure != nil {
			p.failure = rep.Failure
			p.report.Error = rep.Failure.Error()
		}
		parts[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func fetchedRecords(parts []partition) int {
	n := 0
	for _, p := range parts {
		n += p.report.Records
	}
	return n
}

func hasRetryable(failures error) bool {
	for _, err := range multierr.Errors(failures) {
		if apperrors.IsRetryable(err) {
			return true
		}
	}
	return false
}

func (s *OrderService) doneWindow(res WindowResult) {
	outcome := "empty"
	if res.Count > 0 {
		outcome = "found"
	}
	metrics.ResolutionsTotal.WithLabelValues(ModeDateWindow, outcome, TierSweep).Inc()
	if res.ScanUnits > 0 {
		metrics.ScanUnitsTotal.WithLabelValues(ModeDateWindow).Add(float64(res.ScanUnits))
	}
}
