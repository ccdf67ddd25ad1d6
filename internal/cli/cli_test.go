package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/phonginreallife/sentinel/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		schemaIntegration = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := runCommand(t, "schema")
	require.NoError(t, err)
	assert.Equal(t, `["Email","OpsGenie","Slack"]`, gjson.Get(out, "#.title").Raw)

	out, err = runCommand(t, "schema", "slack")
	require.NoError(t, err)
	assert.Equal(t, "Slack", gjson.Get(out, "title").String())
	assert.True(t, gjson.Get(out, "properties.slack_webhook").Exists())

	out, err = runCommand(t, "schema", "slack", "--integration")
	require.NoError(t, err)
	assert.Equal(t, "Slack Integration", gjson.Get(out, "title").String())
	assert.False(t, gjson.Get(out, "properties.notify_on").Exists())

	_, err = runCommand(t, "schema", "pagerduty")
	assert.EqualError(t, err, "Action 'pagerduty' has not been implemented")
}

func TestUniqueNames(t *testing.T) {
	cfg := config.Config{Collections: config.CollectionsConfig{Action: "a", Team: "t", User: "u"}}
	assert.Equal(t, map[string]string{"a": "action_name", "t": "team_name"}, uniqueNames(cfg))
}

func TestStoreOptions(t *testing.T) {
	cfg := config.Config{Store: config.StoreConfig{
		Backend:     "postgres",
		DatabaseURL: "postgres://localhost/sentinel",
		RedisURL:    "redis://localhost:6379/0",
		CacheTTL:    time.Minute,
	}}
	opts := storeOptions(cfg)
	assert.Equal(t, "postgres", opts.Backend)
	assert.Equal(t, "postgres://localhost/sentinel", opts.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", opts.RedisURL)
	assert.Equal(t, time.Minute, opts.CacheTTL)
}
