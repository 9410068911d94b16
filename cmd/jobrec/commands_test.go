package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/config"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/embedding"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordProvider embeds text onto two axes: engineering and sales.
type keywordProvider struct{}

func (keywordProvider) Embed(_ context.Context, _ string, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := []float32{0, 0, 0.1}
	if strings.Contains(lower, "python") || strings.Contains(lower, "golang") {
		vec[0] = 1
	}
	if strings.Contains(lower, "sales") {
		vec[1] = 1
	}
	return vec, nil
}

func (keywordProvider) Close() error { return nil }

func useFakeProvider(t *testing.T) {
	t.Helper()
	original := newProvider
	newProvider = func(context.Context, config.EmbeddingConfig) (embedding.Provider, error) {
		return keywordProvider{}, nil
	}
	t.Cleanup(func() { newProvider = original })
}

// writeConfig writes a config using the memory store and a filesystem object
// store rooted at root.
func writeConfig(t *testing.T, root, baseURL string) string {
	t.Helper()
	if baseURL == "" {
		baseURL = "https://jobs.example.com/search"
	}
	content := fmt.Sprintf(`store:
  driver: memory
objectstore:
  driver: fs
  root: %s
embedding:
  dimensions: 3
  max_attempts: 1
scrape:
  base_url: %s
  format: json
  queries: [golang]
  min_delay: 0s
  max_pages: 2
`, root, baseURL)

	path := filepath.Join(t.TempDir(), "jobrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const janeCV = `Jane Doe
Senior Backend Engineer

Eight years building Python and Golang services on PostgreSQL and Docker.
Led a team migrating billing APIs to Kubernetes.`

func TestIngestCVCommand(t *testing.T) {
	useFakeProvider(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "jane.txt"), []byte(janeCV), 0o600))
	cfgPath := writeConfig(t, root, "")

	out, err := execute(t, "--config", cfgPath, "ingest-cv", "--user-id", "jane", "--source", "uploads/jane.txt")
	require.NoError(t, err, out)

	var profile map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, "jane", profile["user_id"])
	assert.Equal(t, "uploads/jane.txt", profile["source_location"])
	assert.NotContains(t, profile, "raw_text")

	_, err = os.Stat(filepath.Join(root, "processed", "jane", "profile.json"))
	assert.NoError(t, err, "processed profile should be archived")
}

func TestIngestCVCommand_MissingSource(t *testing.T) {
	useFakeProvider(t)
	cfgPath := writeConfig(t, t.TempDir(), "")

	_, err := execute(t, "--config", cfgPath, "ingest-cv", "--user-id", "jane", "--source", "uploads/nobody.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_location")
}

func TestIngestCVCommand_RequiredFlags(t *testing.T) {
	_, err := execute(t, "ingest-cv", "--user-id", "jane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestScrapeCommand(t *testing.T) {
	useFakeProvider(t)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("start") != "0" {
			_, _ = w.Write([]byte(`{"jobs": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"jobs": [
			{"title": "Golang Developer", "url": "/jobs/1", "company": "Acme", "description": "Build Golang APIs"},
			{"title": "Sales Manager", "url": "/jobs/2", "company": "Globex", "description": "Lead the sales team"}
		]}`))
	}))
	defer feed.Close()

	cfgPath := writeConfig(t, t.TempDir(), feed.URL+"/search")

	out, err := execute(t, "--config", cfgPath, "scrape", "--max-jobs", "10")
	require.NoError(t, err, out)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(2), result["ingested_count"])
	assert.Equal(t, float64(2), result["pages"])
	assert.Empty(t, result["errors"])
}

func TestRecommendCommand_UnknownUser(t *testing.T) {
	useFakeProvider(t)
	cfgPath := writeConfig(t, t.TempDir(), "")

	_, err := execute(t, "--config", cfgPath, "recommend", "--user-id", "ghost")
	require.Error(t, err)

	var notFound *match.ProfileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRecommendCommand_InvalidLevel(t *testing.T) {
	useFakeProvider(t)
	cfgPath := writeConfig(t, t.TempDir(), "")

	_, err := execute(t, "--config", cfgPath, "recommend", "--user-id", "jane", "--experience-level", "guru")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experience_level")
}

func TestDeleteProfileCommand_UnknownUser(t *testing.T) {
	useFakeProvider(t)
	cfgPath := writeConfig(t, t.TempDir(), "")

	_, err := execute(t, "--config", cfgPath, "delete-profile", "--user-id", "ghost")
	var notFound *match.ProfileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestHealthCommand(t *testing.T) {
	useFakeProvider(t)
	cfgPath := writeConfig(t, t.TempDir(), "")

	out, err := execute(t, "--config", cfgPath, "health")
	require.NoError(t, err, out)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ok", report["status"])
	assert.Equal(t, "memory", report["driver"])
	assert.Equal(t, "text-embedding-004", report["embedding_model"])
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JOBREC_EMBEDDING_GEMINI_API_KEY", "")
	cfgPath := writeConfig(t, t.TempDir(), "")

	_, err := execute(t, "--config", cfgPath, "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
