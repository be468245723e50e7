package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tablecheck/internal/store"
)

func TestStartScheduler_InvalidSpec(t *testing.T) {
	svc := NewService(Options{}, nil, nil)
	err := svc.StartScheduler(context.Background(), ScheduleConfig{Spec: "every tuesday"})
	assert.Error(t, err)
}

func TestStartScheduler_RunOnStart(t *testing.T) {
	path := writePackage(t, map[string]string{
		"datapackage.json": `{"name": "nightly", "resources": [{"name": "r", "path": "r.csv", "schema": {"fields": [{"name": "a"}]}}]}`,
		"r.csv":            "a\nx\n",
	})
	mem := store.NewMemory(10)
	svc := NewService(Options{}, mem, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.StartScheduler(ctx, ScheduleConfig{
			Spec:       "0 3 * * *",
			Packages:   []string{path, "/does/not/exist.json"},
			RunOnStart: true,
		})
	}()

	require.Eventually(t, func() bool { return mem.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	list, err := mem.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "nightly", list[0].Package)
}
