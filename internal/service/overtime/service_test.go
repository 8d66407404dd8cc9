package overtime

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/laurensOost/925r/internal/service/calculation"
	"github.com/laurensOost/925r/pkg/logger"
)

type mockResolver struct {
	// infos is keyed by "2006-01".
	infos map[string]*calculation.RangeInfo
}

func (m *mockResolver) GetRangeInfo(_ context.Context, userIDs []uint, from, _ time.Time, _ calculation.Options) (map[uint]*calculation.RangeInfo, error) {
	info := m.infos[from.Format("2006-01")]
	if info == nil {
		info = &calculation.RangeInfo{}
	}
	return map[uint]*calculation.RangeInfo{userIDs[0]: info}, nil
}

type mockEmploymentRepo struct {
	earliest time.Time
}

func (m *mockEmploymentRepo) EarliestStartForUser(uint) (time.Time, error) {
	return m.earliest, nil
}

func hours(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestGetOvertimeSeries_FoldsBalance(t *testing.T) {
	resolver := &mockResolver{infos: map[string]*calculation.RangeInfo{
		// January: 10h overtime earned, nothing missing.
		"2024-01": {OvertimeHours: hours(10)},
		// February: 4h of obligation missed eats into the balance.
		"2024-02": {RemainingHours: hours(4)},
		// March: 2h of overtime leave taken.
		"2024-03": {UsedOvertimeHours: hours(2)},
	}}
	service := NewServiceWithInterfaces(resolver, &mockEmploymentRepo{}, logger.New("error", "console", "stdout"))

	series, err := service.GetOvertimeSeries(context.Background(), 1,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetOvertimeSeries failed: %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("Expected 3 monthly records, got %d", len(series))
	}

	balances := []float64{10, 6, 4}
	for i, want := range balances {
		if !series[i].RemainingOvertimeHours.Equal(hours(want)) {
			t.Errorf("Month %d: expected balance %v, got %v", i, want, series[i].RemainingOvertimeHours)
		}
	}
	if series[0].Year != 2024 || series[0].Month != time.January {
		t.Errorf("Expected series to start at 2024-01, got %d-%d", series[0].Year, series[0].Month)
	}
}

func TestGetOvertimeSeries_ZeroFromResolvesEpoch(t *testing.T) {
	resolver := &mockResolver{infos: map[string]*calculation.RangeInfo{
		"2024-02": {OvertimeHours: hours(3)},
	}}
	repo := &mockEmploymentRepo{earliest: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)}
	service := NewServiceWithInterfaces(resolver, repo, logger.New("error", "console", "stdout"))

	series, err := service.GetOvertimeSeries(context.Background(), 1, time.Time{},
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetOvertimeSeries failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 monthly records from the employment epoch, got %d", len(series))
	}
	if !series[1].RemainingOvertimeHours.Equal(hours(3)) {
		t.Errorf("Expected final balance 3, got %v", series[1].RemainingOvertimeHours)
	}
}

func TestGetOvertimeSeries_NoEmploymentHistory(t *testing.T) {
	service := NewServiceWithInterfaces(&mockResolver{}, &mockEmploymentRepo{}, logger.New("error", "console", "stdout"))

	series, err := service.GetOvertimeSeries(context.Background(), 1, time.Time{}, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetOvertimeSeries failed: %v", err)
	}
	if series != nil {
		t.Errorf("Expected empty series for a user with no employment history, got %d records", len(series))
	}
}
