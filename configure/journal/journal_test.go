package journal_test

import (
	"context"
	"testing"

	cfgjournal "github.com/gocrud/lazyload/configure/journal"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/journal"
	"github.com/gocrud/lazyload/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRecordsLoads(t *testing.T) {
	app, err := core.NewApplicationBuilder().
		ConfigureLogging(func(b *logging.LoggingBuilder) { b.SetMinimumLevel(logging.LogLevelNone) }).
		AddModules(map[string]string{"feature2": "Feature2.wasm", "missing": "Missing.wasm"}).
		AddBundle("Feature2.wasm", nil).
		Configure(cfgjournal.Configure(nil)).
		Build()
	require.NoError(t, err)

	j, err := di.Resolve[*journal.Journal](app.Container().CurrentProvider())
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	app.Loader().LoadModule(ctx, "feature2")
	app.Loader().LoadModule(ctx, "feature2")
	app.Loader().LoadModule(ctx, "missing")
	app.Loader().LoadModule(ctx, "unknown-route")

	entries, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "NotApplicable", entries[0].Outcome)
	assert.Equal(t, "Failed", entries[1].Outcome)
	assert.Equal(t, "AlreadyLoaded", entries[2].Outcome)
	assert.Equal(t, "Loaded", entries[3].Outcome)

	feature2, err := j.ForModule(ctx, "Feature2.wasm")
	require.NoError(t, err)
	assert.Len(t, feature2, 2)
}
