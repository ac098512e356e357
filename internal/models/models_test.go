package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.3, RoundRating(4.25))
	assert.Equal(t, 4.2, RoundRating(4.24))
	assert.Equal(t, 5.0, RoundRating(7))
	assert.Equal(t, 0.0, RoundRating(-1))
}

func TestRestaurant_IsOpenAt(t *testing.T) {
	// 2025-03-10 is a Monday
	monday := func(hour, minute int) time.Time {
		return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
	}

	day := &Restaurant{OpeningHours: OpeningHours{Open: "09:00", Close: "21:30", DaysOpen: IntSlice{1, 2, 3}}}
	assert.False(t, day.IsOpenAt(monday(8, 59)))
	assert.True(t, day.IsOpenAt(monday(9, 0)))
	assert.True(t, day.IsOpenAt(monday(21, 29)))
	assert.False(t, day.IsOpenAt(monday(21, 30)))
	assert.False(t, day.IsOpenAt(monday(12, 0).AddDate(0, 0, -1)), "closed on sunday")

	night := &Restaurant{OpeningHours: OpeningHours{Open: "18:00", Close: "03:00", DaysOpen: IntSlice{0}}}
	assert.True(t, night.IsOpenAt(monday(1, 30)), "sunday's shift runs past midnight")
	assert.False(t, night.IsOpenAt(monday(19, 0)))
	assert.False(t, night.IsOpenAt(monday(3, 0)))

	always := &Restaurant{OpeningHours: OpeningHours{Open: "00:00", Close: "00:00"}}
	assert.True(t, always.IsOpenAt(monday(4, 0)))

	always.ManuallyClosed = true
	assert.False(t, always.IsOpenAt(monday(4, 0)))

	broken := &Restaurant{OpeningHours: OpeningHours{Open: "9am", Close: "17:00"}}
	assert.False(t, broken.IsOpenAt(monday(12, 0)))
}

func TestRestaurant_Validate(t *testing.T) {
	valid := Restaurant{
		Name:         "Casa Verde",
		DeliveryTime: 25,
		OpeningHours: OpeningHours{Open: "10:00", Close: "22:00", DaysOpen: IntSlice{1, 2}},
	}
	require.NoError(t, valid.Validate())

	noBase := valid
	noBase.DeliveryTime = 0
	assert.True(t, IsValidationError(noBase.Validate()))

	badDay := valid
	badDay.OpeningHours.DaysOpen = IntSlice{7}
	assert.Error(t, badDay.Validate())

	badClock := valid
	badClock.OpeningHours.Close = "24:00"
	assert.Error(t, badClock.Validate())
}

func TestRestaurant_FindMenuItem(t *testing.T) {
	r := &Restaurant{Menu: []MenuItem{{Name: "Tacos"}, {Name: "Churros"}}}
	r.Menu[0].ID, r.Menu[1].ID = 3, 4

	item := r.FindMenuItem(4)
	require.NotNil(t, item)
	assert.Equal(t, "Churros", item.Name)
	assert.Nil(t, r.FindMenuItem(5))
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderStatusPending.IsActive())
	assert.True(t, OrderStatusPreparing.IsActive())
	assert.False(t, OrderStatusOutForDelivery.IsActive())
	assert.False(t, OrderStatusDelivered.IsActive())
	assert.False(t, OrderStatusCancelled.IsActive())

	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestValidateDeliveryAddress(t *testing.T) {
	addr := Address{Street: "  221B Baker St ", City: "New York", State: "NY", ZipCode: "10001 "}
	require.NoError(t, ValidateDeliveryAddress(&addr))
	assert.Equal(t, "221B Baker St", addr.Street)
	assert.Equal(t, "10001", addr.ZipCode)

	testCases := []struct {
		name  string
		addr  Address
		field string
	}{
		{"short street", Address{Street: "Elm", City: "Austin", State: "TX", ZipCode: "73301"}, "deliveryAddress.street"},
		{"city digits", Address{Street: "1 Main Street", City: "Area 51", State: "NV", ZipCode: "89001"}, "deliveryAddress.city"},
		{"state punctuation", Address{Street: "1 Main Street", City: "Reno", State: "N.V.", ZipCode: "89501"}, "deliveryAddress.state"},
		{"zip plus four", Address{Street: "1 Main Street", City: "Reno", State: "NV", ZipCode: "89501-1234"}, "deliveryAddress.zipCode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDeliveryAddress(&tc.addr)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateSpecialInstructions(t *testing.T) {
	assert.NoError(t, ValidateSpecialInstructions(strings.Repeat("é", 500)))
	assert.Error(t, ValidateSpecialInstructions(strings.Repeat("a", 501)))
}

func TestValidateRegistration(t *testing.T) {
	assert.NoError(t, ValidateRegistration("Grace", "grace@example.com", "hopper123"))

	testCases := []struct {
		name, user, email, password, message string
	}{
		{"missing field", "Grace", "", "hopper123", "All fields are required"},
		{"long name", strings.Repeat("g", 61), "grace@example.com", "hopper123", "Name cannot be more than 60 characters"},
		{"bad email", "Grace", "grace-at-example", "hopper123", "Invalid email format"},
		{"short password", "Grace", "grace@example.com", "hop", "Password must be at least 8 characters long"},
		{"long password", "Grace", "grace@example.com", "hopper1234567890x", "Password must not be more than 16 characters"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegistration(tc.user, tc.email, tc.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.message, verr.Message)
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber(""))
	assert.NoError(t, ValidatePhoneNumber("5551234567"))
	assert.Error(t, ValidatePhoneNumber("0551234567"))
	assert.Error(t, ValidatePhoneNumber("555-123-4567"))
}

func TestSliceColumns(t *testing.T) {
	v, err := StringSlice{"Thai", "Vegan"}.Value()
	require.NoError(t, err)

	var cuisines StringSlice
	require.NoError(t, cuisines.Scan(v))
	assert.True(t, cuisines.Contains("Vegan"))

	var days IntSlice
	require.NoError(t, days.Scan([]byte("[0,6]")))
	assert.Equal(t, IntSlice{0, 6}, days)

	var empty IntSlice
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}
