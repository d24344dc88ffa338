package service

import (
	"context"
	"testing"
	"time"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datingUser(id uint, gender string, age int) *models.User {
	dob := time.Now().AddDate(-age, 0, -1)
	ageMin, ageMax := 18, 60
	height := 175
	lat, lon := 48.2082, 16.3738 // Vienna
	radius := 50.0
	return &models.User{
		ID:                    id,
		Gender:                gender,
		DateOfBirth:           &dob,
		HeightCm:              &height,
		Latitude:              &lat,
		Longitude:             &lon,
		DatingStatus:          models.DatingEnabled,
		MatchAgeMin:           &ageMin,
		MatchAgeMax:           &ageMax,
		MatchGenders:          "MALE,FEMALE",
		MatchLocationRadiusKm: &radius,
	}
}

func TestMatchIsMutualAndSymmetric(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 32)

	assert.True(t, Match(a, b, now))
	assert.True(t, Match(b, a, now))
}

func TestMatchRequiresBothEnabled(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 32)
	b.DatingStatus = models.DatingDisabled

	assert.False(t, Match(a, b, now))
	assert.False(t, Match(b, a, now))
}

func TestMatchExcludesSelf(t *testing.T) {
	a := datingUser(1, "FEMALE", 30)
	assert.False(t, Match(a, a, time.Now()))
}

func TestMatchGenderCriteriaAreMutual(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 32)
	// b only seeks MALE; a is FEMALE, so neither direction matches.
	b.MatchGenders = "MALE"

	assert.False(t, Match(a, b, now))
	assert.False(t, Match(b, a, now))
}

func TestMatchAgeOutOfRange(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 65) // above a's max of 60

	assert.False(t, Match(a, b, now))
}

func TestMatchHeightCriteria(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 32)
	hMin, hMax := 180, 200
	a.MatchHeightMin = &hMin
	a.MatchHeightMax = &hMax // b is 175cm

	assert.False(t, Match(a, b, now))

	tall := 185
	b.HeightCm = &tall
	assert.True(t, Match(a, b, now))
}

func TestMatchDistanceUsesSmallerRadius(t *testing.T) {
	now := time.Now()
	a := datingUser(1, "FEMALE", 30)
	b := datingUser(2, "MALE", 32)
	// Graz is roughly 145 km from Vienna.
	grazLat, grazLon := 47.0707, 15.4395
	b.Latitude = &grazLat
	b.Longitude = &grazLon

	assert.False(t, Match(a, b, now))

	big := 200.0
	a.MatchLocationRadiusKm = &big
	// a would reach, but b's 50 km radius is the binding one.
	assert.False(t, Match(a, b, now))

	b.MatchLocationRadiusKm = &big
	assert.True(t, Match(a, b, now))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Vienna to Graz, ~145 km.
	d := haversineKm(48.2082, 16.3738, 47.0707, 15.4395)
	assert.InDelta(t, 145, d, 10)
}

func TestSetStatusEnableRequiresCompleteProfile(t *testing.T) {
	user := &models.User{ID: 1, DatingStatus: models.DatingDisabled}
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) { return user, nil },
	}
	svc := NewDatingService(userRepo)

	_, err := svc.SetStatus(context.Background(), 1, models.DatingEnabled)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestSetStatusReenableCooldown(t *testing.T) {
	user := datingUser(1, "FEMALE", 30)
	user.DatingStatus = models.DatingDisabled
	recently := time.Now().Add(-time.Hour)
	user.DatingDisabledAt = &recently

	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) { return user, nil },
	}
	svc := NewDatingService(userRepo)

	_, err := svc.SetStatus(context.Background(), 1, models.DatingEnabled)
	require.Error(t, err)
	assert.Equal(t, "STATE_CONFLICT", err.(*models.AppError).Code)
}

func TestSetStatusReenableAfterCooldown(t *testing.T) {
	user := datingUser(1, "FEMALE", 30)
	user.DatingStatus = models.DatingDisabled
	longAgo := time.Now().Add(-4 * time.Hour)
	user.DatingDisabledAt = &longAgo

	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) { return user, nil },
		UpdateFieldsFn: func(ctx context.Context, id uint, fields map[string]interface{}) error {
			return nil
		},
	}
	svc := NewDatingService(userRepo)

	updated, err := svc.SetStatus(context.Background(), 1, models.DatingEnabled)
	require.NoError(t, err)
	assert.Equal(t, models.DatingEnabled, updated.DatingStatus)
}

func TestSetStatusDisableRecordsTimestamp(t *testing.T) {
	user := datingUser(1, "FEMALE", 30)
	var gotFields map[string]interface{}
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) { return user, nil },
		UpdateFieldsFn: func(ctx context.Context, id uint, fields map[string]interface{}) error {
			gotFields = fields
			return nil
		},
	}
	svc := NewDatingService(userRepo)

	updated, err := svc.SetStatus(context.Background(), 1, models.DatingDisabled)
	require.NoError(t, err)
	assert.Equal(t, models.DatingDisabled, updated.DatingStatus)
	require.NotNil(t, updated.DatingDisabledAt)
	assert.Contains(t, gotFields, "dating_disabled_at")
}

func TestMatchStatusQuery(t *testing.T) {
	users := map[uint]*models.User{
		1: datingUser(1, "FEMALE", 30),
		2: datingUser(2, "MALE", 32),
		3: {ID: 3, DatingStatus: models.DatingDisabled},
	}
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return users[id], nil
		},
	}
	svc := NewDatingService(userRepo)

	status, err := svc.MatchStatus(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, MatchStatusPotential, status)

	status, err = svc.MatchStatus(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, MatchStatusNotMatched, status)
}
