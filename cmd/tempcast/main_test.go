package main

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadModel(t *testing.T) {
	model, err := loadModel(filepath.Join("..", "..", "internal", "sarima", "testdata", "modelo_sarima.json"))
	require.NoError(t, err)
	assert.Equal(t, "curitiba_monthly_mean_temp", model.Name())
}

func TestLoadModelInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelo_sarima.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := loadModel(path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "load model: "), err.Error())
}

// freePort returns a port nothing is listening on.
func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	return port
}

func TestRunMissingModelExitsBeforeServing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "modelo_sarima.json")
	port := freePort(t)
	historyDB := filepath.Join(t.TempDir(), "history.db")

	done := make(chan error, 1)
	go func() {
		done <- run(CLI{Model: missing, Port: port, HistoryDB: historyDB}, zaptest.NewLogger(t).Sugar())
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return; it should fail before serving")
	}

	require.Error(t, err)
	assert.Contains(t, err.Error(), `the fitted SARIMA model file "`+missing+`" was not found`)

	conn, dialErr := net.DialTimeout("tcp", "127.0.0.1:"+port, time.Second)
	if dialErr == nil {
		conn.Close()
		t.Fatal("expected no listener on port " + port)
	}
	assert.NoFileExists(t, historyDB, "history database must not be opened")
}
