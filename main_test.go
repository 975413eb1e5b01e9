package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/or73/Async-API-Pizza-Delivery/internal/models"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

// seed stores two users in a file store under dir.
func seed(t *testing.T, dir string) {
	t.Helper()
	db := repositories.NewDB(repositories.NewFileBackend(dir), nil)
	defer db.Close()

	users := db.Store(repositories.Users)
	for _, email := range []string{"a@b.com", "c@d.com"} {
		require.NoError(t, users.Create(context.Background(), email, models.User{
			Email: email, Name: "A", Address: "X", Password: "hash",
		}))
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecordsKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("DATA_DIR", dir)
	seed(t, dir)

	out, err := run(t, "records", "keys", "users")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com\nc@d.com\n", out)

	out, err = run(t, "records", "keys", "tokens")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRecordsDump(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "file")
	t.Setenv("DATA_DIR", dir)
	seed(t, dir)

	out, err := run(t, "records", "dump", "users")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.NotContains(t, records[0], "password")

	out, err = run(t, "records", "dump", "users", "a@b.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"password": "hash"`)

	_, err = run(t, "records", "dump", "users", "x@y.com")
	assert.ErrorContains(t, err, "does not exist")
}

func TestRecordsRejectsUnknownCollection(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, err := run(t, "records", "keys", "pizzas")
	assert.ErrorContains(t, err, "invalid entity")
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Setenv("ORDER_POLICY", "many")

	_, err := run(t, "serve")
	assert.ErrorContains(t, err, "ORDER_POLICY")
}
