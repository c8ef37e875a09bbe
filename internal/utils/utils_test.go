package utils

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	require.NoError(t, SetLogLevel("DEBUG"))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	require.NoError(t, SetLogLevel("warning"))
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
	assert.Error(t, SetLogLevel("trace"))
}

func TestGetAbsDBPath(t *testing.T) {
	def, err := GetAbsDBPath("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(def))
	assert.True(t, strings.HasSuffix(def, filepath.Join(".config", "bindicator", "bindicator.sqlite")), def)

	rel, err := GetAbsDBPath("data.sqlite")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
	assert.Equal(t, "data.sqlite", filepath.Base(rel))
}

func TestDBLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	l, err := NewDBLock(path)
	require.NoError(t, err)
	require.NoError(t, l.Lock())
	assert.FileExists(t, path+".lock")
	require.NoError(t, l.Unlock())
}
