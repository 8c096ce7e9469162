package logic

import (
	"context"
	"errors"
	"testing"

	"I2I/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]models.GenerationJob

func (m mapSource) GetJob(_ context.Context, id string) (models.GenerationJob, error) {
	if j, ok := m[id]; ok {
		return j, nil
	}
	return models.GenerationJob{}, models.ErrJobNotFound
}

type brokenSource struct{}

func (brokenSource) GetJob(context.Context, string) (models.GenerationJob, error) {
	return models.GenerationJob{}, errors.New("connection refused")
}

func TestJobLookupFallsBack(t *testing.T) {
	recent := mapSource{"a": {JobID: "a", Status: models.StatusProcessing}}
	history := mapSource{
		"a": {JobID: "a", Status: models.StatusPending},
		"b": {JobID: "b", Status: models.StatusCompleted},
	}
	l := NewJobLookup(recent, history)

	job, err := l.GetJob(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, job.Status)

	job, err = l.GetJob(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, job.Status)

	_, err = l.GetJob(context.Background(), "c")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestJobLookupSurfacesBackendErrors(t *testing.T) {
	l := NewJobLookup(brokenSource{}, mapSource{})
	_, err := l.GetJob(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrJobNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	l = NewJobLookup(brokenSource{}, mapSource{"x": {JobID: "x"}})
	job, err := l.GetJob(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", job.JobID)
}
