package platform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogHookWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	logger := newLogger(&stderr)
	logger.AddHook(&Hook{logPath: dir, fileName: "gin"})

	logger.Infof("[%s] started", "req-1")

	name := filepath.Join(dir, fmt.Sprintf("%s-gin.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[info] [req-1] started")
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] \[info\]`, string(data))
	assert.Contains(t, stderr.String(), "[req-1] started")
}
