package formflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var tourSchema = Schema{
	{Name: "name", Required: true, MinLen: 3},
	{Name: "description", Required: true, MinLen: 50},
	{Name: "difficulty", Required: true, Enum: []string{"EASY", "MODERATE", "CHALLENGING", "EXTREME"}},
	{Name: "duration", Required: true, Positive: true},
	{Name: "maxParticipants", Required: true, Positive: true},
	{Name: "basePrice", Required: true, Positive: true},
	{Name: "marineLifeIds", Required: true, NonEmpty: true},
	{Name: "seasons", Required: true, NonEmpty: true},
}

func validValues() map[string]interface{} {
	return map[string]interface{}{
		"name":            "Seal Kayak",
		"description":     "Paddle alongside harbour seals on a guided coastal expedition at dawn.",
		"difficulty":      "EASY",
		"duration":        3,
		"maxParticipants": 8,
		"basePrice":       45.00,
		"marineLifeIds":   []string{"ml-1"},
		"seasons":         []string{"SUMMER"},
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotID string
	calls := 0
	f := New(tourSchema, func(values map[string]interface{}, existingID string) error {
		calls++
		gotID = existingID
		return nil
	})

	assert.Equal(t, Idle, f.State())
	assert.NoError(t, f.Submit(validValues(), ""))
	assert.Equal(t, Success, f.State())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "", gotID)
}

func TestSubmitUpdatePassesID(t *testing.T) {
	var gotID string
	f := New(tourSchema, func(values map[string]interface{}, existingID string) error {
		gotID = existingID
		return nil
	})

	assert.NoError(t, f.Submit(validValues(), "tour-42"))
	assert.Equal(t, "tour-42", gotID)
}

func TestValidationStopsSubmit(t *testing.T) {
	calls := 0
	f := New(tourSchema, func(values map[string]interface{}, existingID string) error {
		calls++
		return nil
	})

	values := validValues()
	values["difficulty"] = "IMPOSSIBLE"
	values["duration"] = 0
	delete(values, "name")
	values["marineLifeIds"] = []string{}

	err := f.Submit(values, "")
	assert.Error(t, err)
	assert.Equal(t, Error, f.State())
	assert.Zero(t, calls, "submitter must not run on validation failure")

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 4)
}

func TestErrorRestoresSubmittability(t *testing.T) {
	fail := true
	f := New(tourSchema, func(values map[string]interface{}, existingID string) error {
		if fail {
			return errors.New("upstream unavailable")
		}
		return nil
	})

	assert.Error(t, f.Submit(validValues(), ""))
	assert.Equal(t, Error, f.State())

	// no automatic retry: the caller submits again explicitly
	fail = false
	assert.NoError(t, f.Submit(validValues(), ""))
	assert.Equal(t, Success, f.State())
}

func TestInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := New(tourSchema, func(values map[string]interface{}, existingID string) error {
		close(started)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Submit(validValues(), "")
	}()

	<-started
	assert.Equal(t, ErrInFlight, f.Submit(validValues(), ""))
	close(release)
	wg.Wait()
	assert.Equal(t, Success, f.State())
}
