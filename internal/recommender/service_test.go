package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/cvingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/jobingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/match"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/objectstore"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/scrape"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testCV = `Jane Doe
Senior Backend Engineer

Summary
5 years of experience in Python and Machine Learning, building services on AWS with Docker.
`

// keywordEmbedder maps text onto two axes: backend work and sales work.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (types.Vector, error) {
	vec := types.Vector{Values: []float32{0.1, 0.1}, Model: "test-model"}
	for _, word := range []string{"Python", "Backend", "backend"} {
		if strings.Contains(text, word) {
			vec.Values[0] = 1
		}
	}
	for _, word := range []string{"Sales", "sales"} {
		if strings.Contains(text, word) {
			vec.Values[1] = 1
		}
	}
	return vec, nil
}

func (keywordEmbedder) ActiveModel() string { return "test-model" }

type staticSource struct {
	jobs []scrape.RawJob
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) FetchPage(_ context.Context, page int) ([]scrape.RawJob, error) {
	if page > 0 {
		return nil, nil
	}
	return s.jobs, nil
}

// failingPuts wraps an object store and rejects writes.
type failingPuts struct {
	objectstore.Store
}

func (failingPuts) Put(context.Context, string, []byte) error {
	return errors.New("bucket is read-only")
}

type fixture struct {
	service *Service
	store   *vectorstore.MemoryStore
	objects *objectstore.FSStore
	root    string
}

func newFixture(t *testing.T, objects objectstore.Store, logger *zap.Logger) *fixture {
	t.Helper()

	root := t.TempDir()
	fsStore, err := objectstore.NewFSStore(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "jane.txt"), []byte(testCV), 0o644))
	if objects == nil {
		objects = fsStore
	}

	store := vectorstore.NewMemoryStore()
	embedder := keywordEmbedder{}

	jobs, err := jobingest.New(jobingest.Deps{
		Sources: []scrape.Source{staticSource{jobs: []scrape.RawJob{
			{Title: "Backend Engineer", Company: "Acme", Description: "Python services", Location: "Cairo", URL: "https://jobs.example.com/1"},
			{Title: "Sales Manager", Company: "Globex", Description: "Grow sales", Location: "Giza", URL: "https://jobs.example.com/2"},
		}}},
		Embedder: embedder,
		Store:    store,
	}, jobingest.Options{}, nil)
	require.NoError(t, err)

	service, err := New(Deps{
		Store:   store,
		Objects: objects,
		CVs:     cvingest.New(embedder, store, cvingest.Options{}, nil),
		Jobs:    jobs,
		Engine:  match.NewEngine(store, match.Options{}, nil),
		Model:   embedder,
	}, logger)
	require.NoError(t, err)

	return &fixture{service: service, store: store, objects: fsStore, root: root}
}

func TestService_EndToEnd(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	profile, err := f.service.IngestCV(ctx, "jane", "uploads/jane.txt")
	require.NoError(t, err)
	assert.Equal(t, "jane", profile.UserID)
	assert.Equal(t, "uploads/jane.txt", profile.SourceLocation)

	cycle, err := f.service.RunScrapeCycle(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, cycle.IngestedCount)

	resp, err := f.service.Recommend(ctx, "jane", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "jane", resp.UserID)
	assert.Equal(t, 2, resp.TotalRecommendations)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Backend Engineer", resp.Recommendations[0].Title)
	assert.GreaterOrEqual(t, resp.Recommendations[0].MatchPercentage, resp.Recommendations[1].MatchPercentage)
	assert.Contains(t, resp.UserProfile.Skills, "python")
	require.NotNil(t, resp.UserProfile.ExperienceYears)
	assert.Equal(t, 5, *resp.UserProfile.ExperienceYears)

	filtered, err := f.service.Recommend(ctx, "jane", 10, &types.Filters{Location: "giza"})
	require.NoError(t, err)
	require.Len(t, filtered.Recommendations, 1)
	assert.Equal(t, "Sales Manager", filtered.Recommendations[0].Title)
}

func TestService_RecommendResponseJSON(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.service.IngestCV(ctx, "jane", "uploads/jane.txt")
	require.NoError(t, err)
	_, err = f.service.RunScrapeCycle(ctx, 1)
	require.NoError(t, err)

	resp, err := f.service.Recommend(ctx, "jane", 5, nil)
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"user_id", "total_recommendations", "user_profile", "recommendations"} {
		assert.Contains(t, decoded, key)
	}

	recs := decoded["recommendations"].([]any)
	require.Len(t, recs, 1)
	rec := recs[0].(map[string]any)
	for _, key := range []string{
		"job_id", "title", "company", "description", "location", "job_url", "skills_required",
		"experience_level", "salary_range", "match_percentage", "similarity_score", "scraped_at",
	} {
		assert.Contains(t, rec, key)
	}
	assert.NotContains(t, rec, "embedding")
}

func TestService_ArchivesProfile(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.service.IngestCV(context.Background(), "jane", "uploads/jane.txt")
	require.NoError(t, err)

	data, err := f.objects.Get(context.Background(), objectstore.ProfileArtifactKey("jane"))
	require.NoError(t, err)

	var archived types.CVProfile
	require.NoError(t, json.Unmarshal(data, &archived))
	assert.Equal(t, "jane", archived.UserID)
	assert.Empty(t, archived.RawText)
	assert.Empty(t, archived.Embedding.Values)
	assert.Equal(t, "test-model", archived.Embedding.Model)
}

func TestService_ArchiveFailureDoesNotFailIngestion(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	root := t.TempDir()
	fsStore, err := objectstore.NewFSStore(root)
	require.NoError(t, err)

	f := newFixture(t, failingPuts{fsStore}, zap.New(core))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "jane.txt"), []byte(testCV), 0o644))

	profile, err := f.service.IngestCV(context.Background(), "jane", "uploads/jane.txt")
	require.NoError(t, err)
	assert.Equal(t, "jane", profile.UserID)
	assert.Equal(t, 1, logs.FilterMessage("failed to archive CV profile").Len())

	stored, err := f.store.GetCV(context.Background(), "jane")
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestService_IngestCVValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		location string
		field    string
	}{
		{name: "blank location", userID: "jane", location: " ", field: "source_location"},
		{name: "blank user", userID: "", location: "uploads/jane.txt", field: "user_id"},
		{name: "missing object", userID: "jane", location: "uploads/nobody.txt", field: "source_location"},
		{name: "location outside root", userID: "jane", location: "../escape.txt", field: "source_location"},
		{name: "absolute location outside root", userID: "jane", location: "/etc/passwd", field: "source_location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.IngestCV(ctx, tt.userID, tt.location)
			var validationErr *types.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	require.NoError(t, os.WriteFile(filepath.Join(f.root, "uploads", "binary.bin"), []byte{0xff, 0xfe, 0x00}, 0o644))
	_, err := f.service.IngestCV(ctx, "jane", "uploads/binary.bin")
	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestService_RecommendUnknownUser(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.service.Recommend(context.Background(), "no-such-user", 10, nil)
	var notFound *match.ProfileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestService_DeleteProfile(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.service.IngestCV(ctx, "jane", "uploads/jane.txt")
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteProfile(ctx, "jane"))

	stored, err := f.store.GetCV(ctx, "jane")
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = f.objects.Get(ctx, objectstore.ProfileArtifactKey("jane"))
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	err = f.service.DeleteProfile(ctx, "jane")
	var notFound *match.ProfileNotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = f.service.DeleteProfile(ctx, " ")
	var validationErr *types.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestService_Health(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.service.IngestCV(ctx, "jane", "uploads/jane.txt")
	require.NoError(t, err)
	_, err = f.service.RunScrapeCycle(ctx, 10)
	require.NoError(t, err)

	report, err := f.service.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, vectorstore.StatusOK, report.Status)
	assert.Equal(t, "test-model", report.EmbeddingModel)
	assert.Equal(t, int64(1), report.DocumentCounts[vectorstore.IndexCV])
	assert.Equal(t, int64(2), report.DocumentCounts[vectorstore.IndexJob])

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"embedding_model":"test-model"`)
	assert.Contains(t, string(data), `"status":"ok"`)
}

func TestService_ScrapeNotConfigured(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	objects, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	service, err := New(Deps{
		Store:   store,
		Objects: objects,
		CVs:     cvingest.New(keywordEmbedder{}, store, cvingest.Options{}, nil),
		Engine:  match.NewEngine(store, match.Options{}, nil),
	}, nil)
	require.NoError(t, err)

	_, err = service.RunScrapeCycle(context.Background(), 10)
	assert.Error(t, err)

	_, err = New(Deps{Store: store}, nil)
	assert.Error(t, err)
}
