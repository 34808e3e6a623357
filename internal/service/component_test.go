package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/ports"
	"github.com/partkeep/partkeep/internal/testutil"
)

// memoryComponentStore is an in-memory ComponentStore for unit tests.
type memoryComponentStore struct {
	components map[string]*model.Component
	versions   []*model.ComponentVersion

	// Optional error injection for transport-failure paths.
	submitErr error
}

func newMemoryComponentStore() *memoryComponentStore {
	return &memoryComponentStore{components: make(map[string]*model.Component)}
}

func (s *memoryComponentStore) Submit(
	_ context.Context,
	req *model.SubmitComponentRequest,
	filePath *string,
) (*model.ComponentVersion, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	for _, v := range s.versions {
		if v.PartNumber == req.PartNumber && v.VersionNumber == req.VersionNumber {
			return nil, data.ErrVersionExists
		}
	}
	now := time.Now().UTC()
	if c, ok := s.components[req.PartNumber]; ok {
		c.PartName = req.PartName
		c.Description = req.Description
		c.Status = req.Status
		c.UpdatedAt = now
	} else {
		s.components[req.PartNumber] = &model.Component{
			PartNumber:  req.PartNumber,
			PartName:    req.PartName,
			Description: req.Description,
			Status:      req.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	version := &model.ComponentVersion{
		ID:            uuid.New().String(),
		PartNumber:    req.PartNumber,
		VersionNumber: req.VersionNumber,
		FilePath:      filePath,
		Cost:          req.Cost,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
	}
	s.versions = append(s.versions, version)
	return version, nil
}

func (s *memoryComponentStore) GetByPartNumber(_ context.Context, partNumber string) (*model.Component, error) {
	c, ok := s.components[partNumber]
	if !ok {
		return nil, data.ErrComponentNotFound
	}
	return c, nil
}

func (s *memoryComponentStore) ListVersions(
	_ context.Context,
	partNumber string,
) ([]*model.ComponentVersion, error) {
	var res []*model.ComponentVersion
	for _, v := range s.versions {
		if v.PartNumber == partNumber {
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *memoryComponentStore) ListLatest(
	ctx context.Context,
	opts model.ComponentsListOptions,
) ([]*model.ComponentWithLatestVersion, error) {
	var res []*model.ComponentWithLatestVersion
	for _, c := range s.components {
		if opts.Q != nil && *opts.Q != "" &&
			!strings.Contains(c.PartNumber, *opts.Q) && !strings.Contains(c.PartName, *opts.Q) {
			continue
		}
		if opts.Status != nil && c.Status != *opts.Status {
			continue
		}
		versions, _ := s.ListVersions(ctx, c.PartNumber)
		if len(versions) == 0 {
			continue
		}
		latest := versions[0]
		res = append(res, &model.ComponentWithLatestVersion{
			PartNumber:    c.PartNumber,
			PartName:      c.PartName,
			Description:   c.Description,
			Status:        c.Status,
			VersionNumber: latest.VersionNumber,
			FilePath:      latest.FilePath,
			Cost:          latest.Cost,
			CreatedBy:     latest.CreatedBy,
			CreatedAt:     latest.CreatedAt,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].PartNumber < res[j].PartNumber })
	return res, nil
}

func (s *memoryComponentStore) CountLatest(ctx context.Context, opts model.ComponentsListOptions) (int, error) {
	components, err := s.ListLatest(ctx, opts)
	if err != nil {
		return 0, err
	}
	return len(components), nil
}

func (s *memoryComponentStore) Delete(_ context.Context, partNumber string) (bool, error) {
	if _, ok := s.components[partNumber]; !ok {
		return false, nil
	}
	delete(s.components, partNumber)
	kept := s.versions[:0]
	for _, v := range s.versions {
		if v.PartNumber != partNumber {
			kept = append(kept, v)
		}
	}
	s.versions = kept
	return true, nil
}

// memoryDrawingStore is an in-memory DrawingStore for unit tests.
type memoryDrawingStore struct {
	objects map[string][]byte

	uploadErr  error
	presignErr error
}

func newMemoryDrawingStore() *memoryDrawingStore {
	return &memoryDrawingStore{objects: make(map[string][]byte)}
}

func (s *memoryDrawingStore) Upload(_ context.Context, in ports.UploadInput) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return "", err
	}
	s.objects[in.Key] = body
	return in.Key, nil
}

func (s *memoryDrawingStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://drawings.example.com/" + key + "?signed=1", nil
}

func (s *memoryDrawingStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type componentFixture struct {
	svc      *ComponentService
	repo     *memoryComponentStore
	drawings *memoryDrawingStore
}

func newComponentFixture(t *testing.T) *componentFixture {
	t.Helper()
	repo := newMemoryComponentStore()
	drawings := newMemoryDrawingStore()
	svc, err := NewComponentService(ComponentServiceOptions{Repo: repo, Drawings: drawings})
	require.NoError(t, err)
	return &componentFixture{svc: svc, repo: repo, drawings: drawings}
}

func validSubmitRequest() model.SubmitComponentRequest {
	return model.SubmitComponentRequest{
		PartNumber:    "BRK-1042",
		PartName:      "Mounting Bracket",
		Status:        model.ComponentStatusDraft,
		VersionNumber: "A",
		CreatedBy:     "jdoe",
	}
}

func TestNewComponentService_Validation(t *testing.T) {
	_, err := NewComponentService(ComponentServiceOptions{})
	assert.Error(t, err)
}

func TestComponentService_Submit(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	version, err := f.svc.Submit(ctx, validSubmitRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "BRK-1042", version.PartNumber)
	assert.Equal(t, "A", version.VersionNumber)
	assert.Equal(t, "jdoe", version.CreatedBy)
	assert.Nil(t, version.FilePath)
}

func TestComponentService_Submit_WithDrawing(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	version, err := f.svc.Submit(ctx, validSubmitRequest(), &DrawingUpload{
		Body:        strings.NewReader("%PDF-1.7 drawing bytes"),
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, version.FilePath)
	assert.Equal(t, "BRK-1042/A.pdf", *version.FilePath)
	assert.Contains(t, f.drawings.objects, "BRK-1042/A.pdf")
}

func TestComponentService_Submit_ValidationFailures(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.SubmitComponentRequest)
	}{
		{"missing part number", func(r *model.SubmitComponentRequest) { r.PartNumber = "" }},
		{"bad part number", func(r *model.SubmitComponentRequest) { r.PartNumber = "BRK 1042" }},
		{"missing part name", func(r *model.SubmitComponentRequest) { r.PartName = "" }},
		{"bad status", func(r *model.SubmitComponentRequest) { r.Status = "archived" }},
		{"missing version", func(r *model.SubmitComponentRequest) { r.VersionNumber = "" }},
		{"negative cost", func(r *model.SubmitComponentRequest) { r.Cost = testutil.Float64Ptr(-1) }},
		{"missing submitter", func(r *model.SubmitComponentRequest) { r.CreatedBy = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(&req)
			_, err := f.svc.Submit(ctx, req, nil)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, f.repo.versions)
}

func TestComponentService_Submit_DuplicateVersion(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, validSubmitRequest(), nil)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, validSubmitRequest(), nil)
	assert.ErrorIs(t, err, data.ErrVersionExists)
}

func TestComponentService_Submit_UploadFailure(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()
	f.drawings.uploadErr = errors.New("bucket unreachable")

	_, err := f.svc.Submit(ctx, validSubmitRequest(), &DrawingUpload{
		Body:        strings.NewReader("drawing"),
		ContentType: "application/pdf",
	})
	require.Error(t, err)

	// Upload runs before the write, so nothing was recorded.
	assert.Empty(t, f.repo.versions)
}

func TestComponentService_Submit_CleansUpDrawingOnWriteFailure(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()
	f.repo.submitErr = errors.New("database down")

	_, err := f.svc.Submit(ctx, validSubmitRequest(), &DrawingUpload{
		Body:        strings.NewReader("drawing"),
		ContentType: "application/pdf",
	})
	require.Error(t, err)
	assert.NotContains(t, f.drawings.objects, "BRK-1042/A.pdf")
}

func TestComponentService_Get(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, validSubmitRequest(), nil)
	require.NoError(t, err)

	rev := validSubmitRequest()
	rev.VersionNumber = "B"
	_, err = f.svc.Submit(ctx, rev, nil)
	require.NoError(t, err)

	details, err := f.svc.Get(ctx, "BRK-1042")
	require.NoError(t, err)
	assert.Equal(t, "Mounting Bracket", details.Component.PartName)
	assert.Len(t, details.Versions, 2)

	_, err = f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, data.ErrComponentNotFound)
}

func TestComponentService_ListLatest(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	first := validSubmitRequest()
	_, err := f.svc.Submit(ctx, first, nil)
	require.NoError(t, err)

	second := validSubmitRequest()
	second.PartNumber = "SHF-2001"
	second.PartName = "Drive Shaft"
	second.Status = model.ComponentStatusReleased
	_, err = f.svc.Submit(ctx, second, nil)
	require.NoError(t, err)

	all, err := f.svc.ListLatest(ctx, model.ComponentsListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	released := model.ComponentStatusReleased
	filtered, err := f.svc.ListLatest(ctx, model.ComponentsListOptions{Status: &released})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "SHF-2001", filtered[0].PartNumber)

	count, err := f.svc.CountLatest(ctx, model.ComponentsListOptions{Status: &released})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestComponentService_DrawingURL(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, validSubmitRequest(), &DrawingUpload{
		Body:        strings.NewReader("drawing"),
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	url, err := f.svc.DrawingURL(ctx, "BRK-1042/A.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "BRK-1042/A.pdf")

	_, err = f.svc.DrawingURL(ctx, "")
	assert.Error(t, err)
}

func TestComponentService_Delete(t *testing.T) {
	f := newComponentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, validSubmitRequest(), &DrawingUpload{
		Body:        strings.NewReader("drawing"),
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "BRK-1042"))
	assert.Empty(t, f.drawings.objects)

	_, err = f.svc.Get(ctx, "BRK-1042")
	assert.ErrorIs(t, err, data.ErrComponentNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "BRK-1042"), data.ErrComponentNotFound)
}
