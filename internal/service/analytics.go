package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

// Report granularities.
const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

// ValidGranularities returns the supported time-series granularities.
func ValidGranularities() []string {
	return []string{GranularityDaily, GranularityWeekly, GranularityMonthly}
}

// IsValidGranularity checks whether g is a supported granularity.
func IsValidGranularity(g string) bool {
	for _, v := range ValidGranularities() {
		if v == g {
			return true
		}
	}
	return false
}

const (
	defaultRangeDays = 30
	defaultTopLimit  = 10
	maxTopLimit      = 50
)

// unknownName labels records whose product or category no longer resolves.
const unknownName = "Unknown"

// RangeQuery selects the reporting window. Nil end means now; nil start
// means 30 days before the end. Both bounds are inclusive.
type RangeQuery struct {
	Start *time.Time
	End   *time.Time
}

// ProductStat is one ranked product in a report.
type ProductStat struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Revenue   float64 `json:"revenue"`
}

// CategoryStat is one ranked category in a report.
type CategoryStat struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Revenue    float64 `json:"revenue"`
}

// SummaryReport is the aggregate sales report over a date range.
type SummaryReport struct {
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	TotalOrders   int            `json:"total_orders"`
	ItemsSold     int            `json:"items_sold"`
	TotalRevenue  float64        `json:"total_revenue"`
	TopProducts   []ProductStat  `json:"top_products"`
	TopCategories []CategoryStat `json:"top_categories"`
}

// TimeSeriesPoint is one bucket of the revenue time series.
type TimeSeriesPoint struct {
	Period    string  `json:"period"`
	Orders    int     `json:"orders"`
	ItemsSold int     `json:"items_sold"`
	Revenue   float64 `json:"revenue"`
}

// TimeSeriesReport is the bucketed revenue report over a date range.
type TimeSeriesReport struct {
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Granularity string            `json:"granularity"`
	Points      []TimeSeriesPoint `json:"points"`
}

// ReportCache caches computed reports. A Get error of any kind is treated
// as a miss; Set errors are logged and ignored.
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, report any) error
}

// AnalyticsService computes sales reports from paid orders. It is strictly
// read-only and eventually consistent: orders landing mid-computation show
// up on the next refresh.
type AnalyticsService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      ReportCache
	logger     *slog.Logger
}

// NewAnalyticsService creates a new analytics service. cache may be nil to
// disable report caching.
func NewAnalyticsService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cache ReportCache,
	logger *slog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		orders:     orders,
		products:   products,
		categories: categories,
		cache:      cache,
		logger:     logger,
	}
}

// Summary computes the aggregate sales report: totals over every paid order
// in range, top products ranked by (count desc, revenue desc), and the
// categories of those top products ranked the same way.
func (s *AnalyticsService) Summary(ctx context.Context, q RangeQuery) (*SummaryReport, error) {
	start, end, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("summary:%d:%d", start.Unix(), end.Unix())
	var cached SummaryReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	orders, stats, productByID, err := s.collectStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &SummaryReport{
		StartDate:     start,
		EndDate:       end,
		TotalOrders:   len(orders),
		TopProducts:   []ProductStat{},
		TopCategories: []CategoryStat{},
	}

	for _, st := range stats {
		report.ItemsSold += st.Count
		report.TotalRevenue += st.Revenue
	}

	top := rankProducts(stats, defaultTopLimit)
	s.nameProducts(ctx, top, productByID)
	report.TopProducts = top

	categories, err := s.rollUpCategories(ctx, top, productByID, defaultTopLimit)
	if err != nil {
		return nil, err
	}
	report.TopCategories = categories

	s.cacheSet(ctx, cacheKey, report)

	return report, nil
}

// TimeSeries computes the bucketed revenue report. Points are sorted
// lexicographically by period key, which is chronological for every
// supported key format.
func (s *AnalyticsService) TimeSeries(ctx context.Context, q RangeQuery, granularity string) (*TimeSeriesReport, error) {
	if granularity == "" {
		granularity = GranularityDaily
	}
	if !IsValidGranularity(granularity) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid granularity %q, must be one of: daily, weekly, monthly", granularity))
	}

	start, end, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("timeseries:%d:%d:%s", start.Unix(), end.Unix(), granularity)
	var cached TimeSeriesReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	orders, err := s.orders.ListPaidBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load paid orders: %w", err)
	}

	productByID, err := s.loadOrderProducts(ctx, orders)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*TimeSeriesPoint)
	for i := range orders {
		o := &orders[i]
		key := bucketKey(o.CreatedAt, granularity)

		point, ok := buckets[key]
		if !ok {
			point = &TimeSeriesPoint{Period: key}
			buckets[key] = point
		}

		point.Orders++
		for _, occ := range orderOccurrences(o, productByID) {
			point.ItemsSold++
			point.Revenue += occ.price
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]TimeSeriesPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *buckets[k])
	}

	report := &TimeSeriesReport{
		StartDate:   start,
		EndDate:     end,
		Granularity: granularity,
		Points:      points,
	}

	s.cacheSet(ctx, cacheKey, report)

	return report, nil
}

// TopProducts returns the best-selling products in range, ranked by
// (count desc, revenue desc).
func (s *AnalyticsService) TopProducts(ctx context.Context, q RangeQuery, limit int) ([]ProductStat, error) {
	limit = clampLimit(limit)

	start, end, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("top-products:%d:%d:%d", start.Unix(), end.Unix(), limit)
	var cached []ProductStat
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	_, stats, productByID, err := s.collectStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	top := rankProducts(stats, limit)
	s.nameProducts(ctx, top, productByID)

	s.cacheSet(ctx, cacheKey, top)

	return top, nil
}

// TopCategories returns the best-selling categories in range. Unlike the
// summary report, which rolls up only the top-10 products, this rolls up
// every sold product before ranking.
func (s *AnalyticsService) TopCategories(ctx context.Context, q RangeQuery, limit int) ([]CategoryStat, error) {
	limit = clampLimit(limit)

	start, end, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("top-categories:%d:%d:%d", start.Unix(), end.Unix(), limit)
	var cached []CategoryStat
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	_, stats, productByID, err := s.collectStats(ctx, start, end)
	if err != nil {
		return nil, err
	}

	categories, err := s.rollUpCategories(ctx, stats, productByID, limit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, categories)

	return categories, nil
}

// resolveRange fills in the open bounds of the query: end defaults to now,
// start to 30 days before end.
func (s *AnalyticsService) resolveRange(q RangeQuery) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if q.End != nil {
		end = q.End.UTC()
	}

	start := end.AddDate(0, 0, -defaultRangeDays)
	if q.Start != nil {
		start = q.Start.UTC()
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("start date must not be after end date")
	}

	return start, end, nil
}

type occurrence struct {
	productID string
	price     float64
}

// orderOccurrences expands an order into one occurrence per entry of its
// raw product id list. The charged line price is used when the order
// carries a matching line item; otherwise the current catalog price is the
// fallback, and a vanished product contributes zero revenue but still
// counts as sold.
func orderOccurrences(o *domain.Order, productByID map[string]domain.Product) []occurrence {
	occs := make([]occurrence, 0, len(o.ProductIDs))

	for i, pid := range o.ProductIDs {
		var price float64
		switch {
		case i < len(o.Items) && o.Items[i].ProductID == pid:
			price = o.Items[i].Price
		default:
			if p, ok := productByID[pid]; ok {
				price = p.Price
			}
		}
		occs = append(occs, occurrence{productID: pid, price: price})
	}

	return occs
}

// collectStats loads the paid orders in range and aggregates per-product
// occurrence counts and revenue.
func (s *AnalyticsService) collectStats(ctx context.Context, start, end time.Time) ([]domain.Order, []ProductStat, map[string]domain.Product, error) {
	orders, err := s.orders.ListPaidBetween(ctx, start, end)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load paid orders: %w", err)
	}

	productByID, err := s.loadOrderProducts(ctx, orders)
	if err != nil {
		return nil, nil, nil, err
	}

	byProduct := make(map[string]*ProductStat)
	for i := range orders {
		for _, occ := range orderOccurrences(&orders[i], productByID) {
			st, ok := byProduct[occ.productID]
			if !ok {
				st = &ProductStat{ProductID: occ.productID}
				byProduct[occ.productID] = st
			}
			st.Count++
			st.Revenue += occ.price
		}
	}

	stats := make([]ProductStat, 0, len(byProduct))
	for _, st := range byProduct {
		stats = append(stats, *st)
	}

	return orders, stats, productByID, nil
}

// loadOrderProducts batch-fetches every product referenced by the orders.
// Products deleted since the sale are simply absent from the map.
func (s *AnalyticsService) loadOrderProducts(ctx context.Context, orders []domain.Order) (map[string]domain.Product, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for i := range orders {
		for _, pid := range orders[i].ProductIDs {
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			ids = append(ids, pid)
		}
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}

	productByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	return productByID, nil
}

// rankProducts sorts stats by (count desc, revenue desc, id asc) and
// truncates to limit. The id tiebreak keeps the ranking deterministic.
func rankProducts(stats []ProductStat, limit int) []ProductStat {
	ranked := make([]ProductStat, len(stats))
	copy(ranked, stats)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// nameProducts fills display names into the ranked stats. Products that no
// longer exist are labeled Unknown rather than dropped.
func (s *AnalyticsService) nameProducts(_ context.Context, stats []ProductStat, productByID map[string]domain.Product) {
	for i := range stats {
		if p, ok := productByID[stats[i].ProductID]; ok {
			stats[i].Name = p.Name
		} else {
			stats[i].Name = unknownName
		}
	}
}

// rollUpCategories aggregates product stats into their categories, ranks
// by (count desc, revenue desc, id asc), and truncates to limit.
func (s *AnalyticsService) rollUpCategories(ctx context.Context, stats []ProductStat, productByID map[string]domain.Product, limit int) ([]CategoryStat, error) {
	byCategory := make(map[string]*CategoryStat)
	for _, st := range stats {
		categoryID := ""
		if p, ok := productByID[st.ProductID]; ok {
			categoryID = p.CategoryID
		}

		cs, ok := byCategory[categoryID]
		if !ok {
			cs = &CategoryStat{CategoryID: categoryID}
			byCategory[categoryID] = cs
		}
		cs.Count += st.Count
		cs.Revenue += st.Revenue
	}

	categoryIDs := make([]string, 0, len(byCategory))
	for id := range byCategory {
		if id != "" {
			categoryIDs = append(categoryIDs, id)
		}
	}

	nameByID := make(map[string]string, len(categoryIDs))
	if len(categoryIDs) > 0 {
		categories, err := s.categories.GetByIDs(ctx, categoryIDs)
		if err != nil {
			return nil, fmt.Errorf("load category names: %w", err)
		}
		for _, c := range categories {
			nameByID[c.ID] = c.Name
		}
	}

	ranked := make([]CategoryStat, 0, len(byCategory))
	for id, cs := range byCategory {
		if name, ok := nameByID[id]; ok {
			cs.Name = name
		} else {
			cs.Name = unknownName
		}
		ranked = append(ranked, *cs)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].CategoryID < ranked[j].CategoryID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

// bucketKey maps an instant to its reporting bucket. Daily and monthly
// buckets are plain UTC date prefixes. Weekly buckets use the ISO-8601
// week: shift the day to the Thursday of its week, then count weeks from
// the start of that Thursday's year. Shifting to Thursday is what pins
// year-boundary days to the correct ISO year (2024-01-01 is week 1 of
// 2024, but 2023-12-29 belongs to week 52 of 2023).
func bucketKey(t time.Time, granularity string) string {
	t = t.UTC()

	switch granularity {
	case GranularityMonthly:
		return t.Format("2006-01")
	case GranularityWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		thursday := day.AddDate(0, 0, 3-int((day.Weekday()+6)%7))
		yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		week := (int(thursday.Sub(yearStart).Hours()/24) + 7) / 7
		return fmt.Sprintf("%d-W%02d", thursday.Year(), week)
	default:
		return t.Format("2006-01-02")
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultTopLimit
	}
	if limit > maxTopLimit {
		return maxTopLimit
	}
	return limit
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		return false
	}
	s.logger.DebugContext(ctx, "analytics report served from cache", slog.String("key", key))
	return true
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, report any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.DebugContext(ctx, "failed to cache analytics report",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
