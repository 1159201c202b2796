package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/aarogya/billing-backend/internal/application/loaders"
	"github.com/aarogya/billing-backend/internal/billing"
	"github.com/aarogya/billing-backend/internal/domain/entities"
	"github.com/aarogya/billing-backend/internal/domain/providers"
	"github.com/aarogya/billing-backend/internal/domain/repositories"
	"github.com/aarogya/billing-backend/internal/export"
	"github.com/aarogya/billing-backend/internal/infrastructure/observability"
)

const (
	reportCachePrefix = "reports:"
	reportCacheTTL    = 120 // seconds; bill mutations also invalidate eagerly
)

// ReportQuery scopes a report to a date range and optional bill filters
type ReportQuery struct {
	From    *time.Time      `json:"from,omitempty"`
	To      *time.Time      `json:"to,omitempty"`
	Status  string          `json:"status,omitempty"`
	Remarks string          `json:"remarks,omitempty"`
	Refund  decimal.Decimal `json:"refund,omitempty"`
}

// ReportService runs the billing aggregation engine over the bill store and
// memoizes results in the cache. Cache refreshes carry a per-key monotonic
// sequence so a slow recomputation never overwrites a newer one.
type ReportService struct {
	billRepo repositories.BillRepository
	loaders  *loaders.Loaders
	cache    providers.CacheProvider
	metrics  *observability.Metrics

	mu      sync.Mutex
	issued  map[string]uint64
	applied map[string]uint64
}

// NewReportService creates a new report service
func NewReportService(
	billRepo repositories.BillRepository,
	batchLoaders *loaders.Loaders,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
) *ReportService {
	return &ReportService{
		billRepo: billRepo,
		loaders:  batchLoaders,
		cache:    cache,
		metrics:  metrics,
		issued:   map[string]uint64{},
		applied:  map[string]uint64{},
	}
}

// CategoryRevenue aggregates revenue per service category
func (s *ReportService) CategoryRevenue(ctx context.Context, q ReportQuery) ([]billing.CategoryRevenueEntry, error) {
	var entries []billing.CategoryRevenueEntry
	err := s.memoized(ctx, "category-revenue", q, &entries, func(ctx context.Context) (interface{}, error) {
		bills, err := s.loadBills(ctx, q)
		if err != nil {
			return nil, err
		}
		return billing.CategoryRevenue(bills, time.Now()), nil
	})
	return entries, err
}

// PaymentMethods aggregates bill amounts per payment method
func (s *ReportService) PaymentMethods(ctx context.Context, q ReportQuery) ([]billing.PaymentMethodEntry, error) {
	var entries []billing.PaymentMethodEntry
	err := s.memoized(ctx, "payment-methods", q, &entries, func(ctx context.Context) (interface{}, error) {
		bills, err := s.loadBills(ctx, q)
		if err != nil {
			return nil, err
		}
		return billing.PaymentMethodDistribution(bills), nil
	})
	return entries, err
}

// Collections builds the per-method collection summary
func (s *ReportService) Collections(ctx context.Context, q ReportQuery) (*billing.CollectionSummary, error) {
	var summary billing.CollectionSummary
	err := s.memoized(ctx, "collections", q, &summary, func(ctx context.Context) (interface{}, error) {
		bills, err := s.loadBills(ctx, q)
		if err != nil {
			return nil, err
		}
		return billing.Collections(bills, q.Refund), nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Dues builds the per-bill dues report with patient names resolved, "N/A"
// where the patient record is missing
func (s *ReportService) Dues(ctx context.Context, q ReportQuery) ([]billing.DuesRow, error) {
	var rows []billing.DuesRow
	err := s.memoized(ctx, "dues", q, &rows, func(ctx context.Context) (interface{}, error) {
		bills, err := s.loadBills(ctx, q)
		if err != nil {
			return nil, err
		}

		duesRows := billing.DuesReport(bills)

		ids := make([]string, 0, len(duesRows))
		for _, row := range duesRows {
			ids = append(ids, row.PatientID)
		}
		names := s.loaders.PatientNames(ctx, ids)
		for i := range duesRows {
			duesRows[i].PatientName = names[duesRows[i].PatientID]
		}
		return duesRows, nil
	})
	return rows, err
}

// CollectionsXLSX renders the collection summary as a spreadsheet
func (s *ReportService) CollectionsXLSX(ctx context.Context, q ReportQuery) ([]byte, error) {
	summary, err := s.Collections(ctx, q)
	if err != nil {
		return nil, err
	}

	data, err := export.CollectionsXLSX(*summary, q.From, q.To)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		observability.RecordExport(ctx, s.metrics, "xlsx")
	}
	return data, nil
}

// DuesXLSX renders the dues report as a spreadsheet
func (s *ReportService) DuesXLSX(ctx context.Context, q ReportQuery) ([]byte, error) {
	rows, err := s.Dues(ctx, q)
	if err != nil {
		return nil, err
	}

	data, err := export.DuesXLSX(rows)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		observability.RecordExport(ctx, s.metrics, "xlsx")
	}
	return data, nil
}

// loadBills fetches bills scoped by the query. Date and status narrowing
// happen in the database; the remarks substring match runs in memory.
func (s *ReportService) loadBills(ctx context.Context, q ReportQuery) ([]*entities.Bill, error) {
	filter := repositories.BillFilter{
		Status: entities.BillStatus(q.Status),
	}
	if q.From != nil {
		from := billing.DayStart(*q.From)
		filter.From = &from
	}
	if q.To != nil {
		to := billing.DayEnd(*q.To)
		filter.To = &to
	}

	bills, err := s.billRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return billing.Filter(bills, billing.Query{Remarks: q.Remarks}), nil
}

// memoized serves out of the cache when possible, otherwise computes and
// refreshes the cache in the background. A sequence number is issued per
// cache key at compute start; a completion whose sequence is behind the last
// applied one is discarded.
func (s *ReportService) memoized(ctx context.Context, report string, q ReportQuery, out interface{}, compute func(context.Context) (interface{}, error)) error {
	key := s.cacheKey(report, q)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				if s.metrics != nil {
					observability.RecordCacheHit(ctx, s.metrics, key)
				}
				return nil
			}
			observability.LoggerFromContext(ctx).Warn().Str("key", key).Msg("failed to unmarshal cached report, recomputing")
		} else if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, key)
		}
	}

	seq := s.nextSeq(key)

	start := time.Now()
	result, err := compute(ctx)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		observability.RecordReportMetric(ctx, s.metrics, report, time.Since(start))
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}

	if s.cache != nil {
		go func() {
			if !s.tryApply(key, seq) {
				return
			}
			bgCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := s.cache.Set(bgCtx, key, data, reportCacheTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to cache report")
			}
		}()
	}

	return nil
}

func (s *ReportService) cacheKey(report string, q ReportQuery) string {
	payload, _ := json.Marshal(q)
	sum := sha1.Sum(payload)
	return reportCachePrefix + report + ":" + hex.EncodeToString(sum[:8])
}

func (s *ReportService) nextSeq(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[key]++
	return s.issued[key]
}

// tryApply reports whether a refresh with the given sequence is still the
// newest completion for the key
func (s *ReportService) tryApply(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[key] {
		return false
	}
	s.applied[key] = seq
	return true
}
