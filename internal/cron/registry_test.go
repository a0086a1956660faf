package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry := NewRegistry(jobA, nil, jobB, &stubJob{name: "a"})

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, jobA, jobs[0])
	assert.Same(t, jobB, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryOnly(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "a"}, &stubJob{name: "b"}, &stubJob{name: "c"})

	filtered := registry.Only("c", "missing", "a")
	jobs := filtered.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].Name())
	assert.Equal(t, "a", jobs[1].Name())

	_, ok := registry.Lookup("missing")
	assert.False(t, ok)
}
