package email

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFeedbackReceived(t *testing.T) {
	logger := zerolog.Nop()
	c := NewClient(&config.Config{}, &logger)
	c.templateDir = filepath.Join("..", "..", "..", "templates", "emails")

	html, err := c.Render(TemplateFeedbackReceived, PreviewData[TemplateFeedbackReceived])
	require.NoError(t, err)
	assert.Contains(t, html, "Vera Rubin")
	assert.Contains(t, html, "U123")
	assert.Contains(t, html, "#42")
}

func TestRenderEscapesData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feedback_received.html"), []byte("<p>{{.PIName}}</p>"), 0o600))

	logger := zerolog.Nop()
	c := NewClient(&config.Config{}, &logger)
	c.templateDir = dir

	html, err := c.Render(TemplateFeedbackReceived, map[string]string{"PIName": "<script>"})
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;script&gt;</p>", html)
}

func TestRenderMissingTemplate(t *testing.T) {
	logger := zerolog.Nop()
	c := NewClient(&config.Config{}, &logger)
	c.templateDir = t.TempDir()

	_, err := c.Render(TemplateFeedbackReceived, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse email template feedback_received")
}
