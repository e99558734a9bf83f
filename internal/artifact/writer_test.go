package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	w.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return w, dir
}

func TestAppendAgentMarkdownLayout(t *testing.T) {
	w, dir := fixedWriter(t)

	err := w.AppendAgentMarkdown("AAPL", "technical_analyst", "analysis", "RSI looks stretched.",
		map[string]string{"model": "gpt-4o", "confidence": "0.7"})
	require.NoError(t, err)

	path := filepath.Join(dir, "markdown", "2025-03-14", "AAPL", "technical_analyst.md")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "## analysis - 09:26:53")
	assert.Contains(t, content, "RSI looks stretched.")
	// Metadata keys are rendered sorted.
	assert.Less(t,
		strings.Index(content, "- **confidence**: 0.7"),
		strings.Index(content, "- **model**: gpt-4o"))
}

func TestAppendAgentMarkdownAppends(t *testing.T) {
	w, dir := fixedWriter(t)

	require.NoError(t, w.AppendAgentMarkdown("AAPL", "trader", "decision", "first", nil))
	require.NoError(t, w.AppendAgentMarkdown("AAPL", "trader", "decision", "second", nil))

	data, err := os.ReadFile(filepath.Join(dir, "markdown", "2025-03-14", "AAPL", "trader.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
	assert.Less(t, strings.Index(string(data), "first"), strings.Index(string(data), "second"))
}

func TestAppendWorkflowMarker(t *testing.T) {
	w, dir := fixedWriter(t)

	require.NoError(t, w.AppendWorkflowMarker("AAPL", "ANALYSIS start"))
	require.NoError(t, w.AppendWorkflowMarker("AAPL", "ANALYSIS end"))

	data, err := os.ReadFile(filepath.Join(dir, "markdown", "2025-03-14", "AAPL", "workflow.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- 2025-03-14T09:26:53Z ANALYSIS start")
	assert.Contains(t, string(data), "- 2025-03-14T09:26:53Z ANALYSIS end")
}

func TestWriteCallChainZeroPadsSequence(t *testing.T) {
	w, dir := fixedWriter(t)

	require.NoError(t, w.WriteCallChain("AAPL", "fundamental_analyst", 1, "# chain one"))
	require.NoError(t, w.WriteCallChain("AAPL", "trader", 12, "# chain twelve"))

	base := filepath.Join(dir, "llm", "2025-03-14", "AAPL")
	data, err := os.ReadFile(filepath.Join(base, "01.fundamental_analyst.md"))
	require.NoError(t, err)
	assert.Equal(t, "# chain one", string(data))

	_, err = os.Stat(filepath.Join(base, "12.trader.md"))
	assert.NoError(t, err)
}

func TestSanitizeFilesystemNames(t *testing.T) {
	assert.Equal(t, "BRK.B", sanitize("BRK.B"))
	assert.Equal(t, "risk_manager", sanitize("risk_manager"))
	assert.Equal(t, "a_b_c", sanitize("a/b c"))
}
