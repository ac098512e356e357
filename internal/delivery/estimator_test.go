package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"feastly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSource is a mock implementation of the Source interface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockSource) CountActiveOrders(ctx context.Context, restaurantID uint, statuses ...models.OrderStatus) (int, error) {
	args := m.Called(ctx, restaurantID, statuses)
	return args.Int(0), args.Error(1)
}

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.March, 4, hour, 30, 0, 0, time.UTC)
	}
}

func restaurant(id uint, base int) *models.Restaurant {
	r := &models.Restaurant{DeliveryTime: base}
	r.ID = id
	return r
}

func TestEstimateMinutes_Scenarios(t *testing.T) {
	testCases := []struct {
		name   string
		base   int
		active int
		hour   int
		want   float64
	}{
		{"idle morning", 30, 0, 9, 30},
		{"busy morning", 30, 3, 9, 36},
		{"busy lunch", 30, 3, 12, 54},
		{"idle dinner", 20, 0, 18, 30},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, EstimateMinutes(tc.base, tc.active, tc.hour), 1e-9)
		})
	}
}

func TestEstimateMinutes_OffPeakIsLinear(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		if IsPeakHour(hour) {
			continue
		}
		for _, base := range []int{1, 15, 45} {
			for active := 0; active <= 10; active++ {
				want := float64(base + active*2)
				assert.Equal(t, want, EstimateMinutes(base, active, hour), "base=%d active=%d hour=%d", base, active, hour)
			}
		}
	}
}

func TestEstimateMinutes_PeakAppliesMultiplierAfterPenalty(t *testing.T) {
	for _, hour := range []int{11, 12, 13, 14, 17, 18, 19, 20} {
		for active := 0; active <= 5; active++ {
			want := float64(25+active*2) * 1.5
			assert.InDelta(t, want, EstimateMinutes(25, active, hour), 1e-9, "hour=%d active=%d", hour, active)
		}
	}
}

func TestIsPeakHour_Boundaries(t *testing.T) {
	peak := map[int]bool{11: true, 12: true, 13: true, 14: true, 17: true, 18: true, 19: true, 20: true}
	for hour := 0; hour < 24; hour++ {
		assert.Equal(t, peak[hour], IsPeakHour(hour), "hour %d", hour)
	}

	assert.False(t, IsPeakHour(10))
	assert.False(t, IsPeakHour(15))
	assert.True(t, IsPeakHour(11))
	assert.True(t, IsPeakHour(20))
}

func TestEstimator_Estimate(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(7)).Return(restaurant(7, 30), nil)
	source.On("CountActiveOrders", ctx, uint(7), []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPreparing}).Return(3, nil)

	clock := at(12)
	estimator := NewEstimator(source, WithClock(clock), WithLocation(time.UTC))

	estimate, err := estimator.Estimate(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, uint(7), estimate.RestaurantID)
	assert.Equal(t, 30, estimate.BaseMinutes)
	assert.Equal(t, 3, estimate.ActiveOrders)
	assert.True(t, estimate.Peak)
	assert.InDelta(t, 54.0, estimate.Minutes, 1e-9)
	assert.Equal(t, clock().Add(54*time.Minute), estimate.DeliveryAt)
	source.AssertExpectations(t)
}

func TestEstimator_OffPeak(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 30), nil)
	source.On("CountActiveOrders", ctx, uint(1), mock.Anything).Return(0, nil)

	estimator := NewEstimator(source, WithClock(at(9)), WithLocation(time.UTC))

	estimate, err := estimator.Estimate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, estimate.Peak)
	assert.Equal(t, 30.0, estimate.Minutes)
	assert.Equal(t, at(9)().Add(30*time.Minute), estimate.DeliveryAt)
}

func TestEstimator_UsesConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 20), nil)
	source.On("CountActiveOrders", ctx, uint(1), mock.Anything).Return(0, nil)

	// 09:30 UTC is 18:30 in UTC+9.
	zone := time.FixedZone("UTC+9", 9*60*60)
	estimator := NewEstimator(source, WithClock(at(9)), WithLocation(zone))

	estimate, err := estimator.Estimate(ctx, 1)
	require.NoError(t, err)
	assert.True(t, estimate.Peak)
	assert.Equal(t, 30.0, estimate.Minutes)
}

func TestEstimator_CustomRules(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 10), nil)
	source.On("CountActiveOrders", ctx, uint(1), mock.Anything).Return(4, nil)

	estimator := NewEstimator(source,
		WithClock(at(8)),
		WithLocation(time.UTC),
		WithMinutesPerActiveOrder(5),
		WithPeakMultiplier(2),
		WithPeakSchedule(PeakSchedule{{Start: 7, End: 8}}),
	)

	estimate, err := estimator.Estimate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60.0, estimate.Minutes)
}

func TestEstimator_MultiplierNotCompounded(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 20), nil)
	source.On("CountActiveOrders", ctx, uint(1), mock.Anything).Return(0, nil)

	estimator := NewEstimator(source, WithClock(at(18)), WithLocation(time.UTC))

	for i := 0; i < 3; i++ {
		estimate, err := estimator.Estimate(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 30.0, estimate.Minutes)
	}
}

func TestEstimator_RestaurantNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("storage not found", func(t *testing.T) {
		source := new(MockSource)
		source.On("GetRestaurant", ctx, uint(99)).Return(nil, models.ErrNotFound)

		_, err := NewEstimator(source).Estimate(ctx, 99)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRestaurantNotFound))
		assert.True(t, models.IsValidationError(err))
		source.AssertNotCalled(t, "CountActiveOrders", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil restaurant", func(t *testing.T) {
		source := new(MockSource)
		source.On("GetRestaurant", ctx, uint(99)).Return(nil, nil)

		_, err := NewEstimator(source).Estimate(ctx, 99)
		assert.ErrorIs(t, err, ErrRestaurantNotFound)
	})
}

func TestEstimator_StorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 30), nil)
	source.On("CountActiveOrders", ctx, uint(1), mock.Anything).Return(0, boom)

	_, err := NewEstimator(source).Estimate(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, models.IsValidationError(err))
}

func TestEstimator_RejectsNonPositiveBase(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	source.On("GetRestaurant", ctx, uint(1)).Return(restaurant(1, 0), nil)

	_, err := NewEstimator(source).Estimate(ctx, 1)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestParsePeakSchedule(t *testing.T) {
	schedule, err := ParsePeakSchedule("11-14, 17-20")
	require.NoError(t, err)
	assert.Equal(t, DefaultPeakSchedule, schedule)

	_, err = ParsePeakSchedule("14-11")
	assert.Error(t, err)

	_, err = ParsePeakSchedule("noon")
	assert.Error(t, err)

	_, err = ParsePeakSchedule("20-24")
	assert.Error(t, err)
}
