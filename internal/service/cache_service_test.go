package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/school-portal-api/internal/models"
	appErrors "github.com/edustack/school-portal-api/pkg/errors"
)

type mockCacheRepo struct {
	entries map[string][]byte
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{entries: make(map[string][]byte)}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceDisabledIsPassThrough(t *testing.T) {
	svc := NewCacheService(newMockCacheRepo(), nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceRoundTrip(t *testing.T) {
	svc := NewCacheService(newMockCacheRepo(), nil, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Set(context.Background(), "k", map[string]int{"n": 7}, 0))
	var out map[string]int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, out["n"])

	var missed map[string]int
	hit, err = svc.Get(context.Background(), "other", &missed)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPaperServiceListUsesCache(t *testing.T) {
	repo := newMockPaperRepo()
	cacheRepo := newMockCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewPaperService(repo, nil, nil, cacheSvc, nil, zap.NewNop(), PaperConfig{ListCacheTTL: time.Minute})

	paper, err := svc.CreateDraft(context.Background(), "school-1", "teacher-1", CreatePaperRequest{
		Class: "10", Subject: "Physics", ExamType: "Half Yearly", DeclaredTotalMarks: 80,
	})
	require.NoError(t, err)

	filter := models.PaperFilter{SchoolID: "school-1", Page: 1, PageSize: 20}
	papers, total, cacheHit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, total)
	require.Len(t, papers, 1)

	papers, total, cacheHit, err = svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, total)
	require.Len(t, papers, 1)
	assert.Equal(t, paper.ID, papers[0].ID)
}

func TestPaperServiceMutationInvalidatesListCache(t *testing.T) {
	repo := newMockPaperRepo()
	cacheRepo := newMockCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewPaperService(repo, nil, nil, cacheSvc, nil, zap.NewNop(), PaperConfig{ListCacheTTL: time.Minute})

	paper, err := svc.CreateDraft(context.Background(), "school-1", "teacher-1", CreatePaperRequest{
		Class: "10", Subject: "Physics", ExamType: "Half Yearly", DeclaredTotalMarks: 80,
	})
	require.NoError(t, err)

	filter := models.PaperFilter{SchoolID: "school-1", Page: 1, PageSize: 20}
	_, _, _, err = svc.List(context.Background(), filter)
	require.NoError(t, err)

	_, err = svc.AddSection(context.Background(), "school-1", paper.ID, paper.Version)
	require.NoError(t, err)

	_, _, cacheHit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, cacheHit)
}
