package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/ports"
)

// drawingURLExpiry bounds how long a presigned drawing link stays valid.
const drawingURLExpiry = 15 * time.Minute

// ComponentStore is the component persistence surface the service needs.
// *data.ComponentRepo satisfies it.
type ComponentStore interface {
	Submit(ctx context.Context, req *model.SubmitComponentRequest, filePath *string) (*model.ComponentVersion, error)
	GetByPartNumber(ctx context.Context, partNumber string) (*model.Component, error)
	ListVersions(ctx context.Context, partNumber string) ([]*model.ComponentVersion, error)
	ListLatest(ctx context.Context, opts model.ComponentsListOptions) ([]*model.ComponentWithLatestVersion, error)
	CountLatest(ctx context.Context, opts model.ComponentsListOptions) (int, error)
	Delete(ctx context.Context, partNumber string) (bool, error)
}

// ComponentServiceOptions groups dependencies for ComponentService.
type ComponentServiceOptions struct {
	Repo     ComponentStore     // Required: component repository
	Drawings ports.DrawingStore // Optional: object storage for drawing PDFs
	Logger   *slog.Logger       // Optional: structured logger
}

// ComponentService provides business logic for the component library:
// submissions with optional drawing upload, the latest-version listing, and
// presigned drawing links.
type ComponentService struct {
	repo     ComponentStore
	drawings ports.DrawingStore
	logger   *slog.Logger
}

// NewComponentService constructs a new ComponentService with validation.
func NewComponentService(opts ComponentServiceOptions) (*ComponentService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ComponentStore is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "component_service")
	}

	return &ComponentService{
		repo:     opts.Repo,
		drawings: opts.Drawings,
		logger:   logger,
	}, nil
}

// MustNewComponentService constructs a new ComponentService and panics on error.
func MustNewComponentService(opts ComponentServiceOptions) *ComponentService {
	svc, err := NewComponentService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// DrawingUpload carries an optional drawing file attached to a submission.
type DrawingUpload struct {
	Body        io.Reader
	ContentType string
}

// Submit records a component and a new immutable version, uploading the
// attached drawing (if any) first so a failed upload never leaves a version
// row pointing at a missing object.
func (s *ComponentService) Submit(
	ctx context.Context,
	req model.SubmitComponentRequest,
	drawing *DrawingUpload,
) (*model.ComponentVersion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CreatedBy == "" {
		return nil, errors.New("created_by is required")
	}

	var filePath *string
	if drawing != nil && drawing.Body != nil {
		if s.drawings == nil {
			return nil, errors.New("drawing storage is not configured")
		}
		key := fmt.Sprintf("%s/%s.pdf", req.PartNumber, req.VersionNumber)
		stored, err := s.drawings.Upload(ctx, ports.UploadInput{
			Key:         key,
			Body:        drawing.Body,
			ContentType: drawing.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload drawing: %w", err)
		}
		filePath = &stored
	}

	version, err := s.repo.Submit(ctx, &req, filePath)
	if err != nil {
		// Submission failed after a successful upload: remove the orphaned
		// object so a retry starts clean.
		if filePath != nil {
			if delErr := s.drawings.Delete(ctx, *filePath); delErr != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "failed to remove orphaned drawing",
					"key", *filePath, "err", delErr)
			}
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "component version submitted",
			"part_number", version.PartNumber,
			"version", version.VersionNumber,
			"created_by", version.CreatedBy,
		)
	}

	return version, nil
}

// ComponentDetails pairs a component with its full version history.
type ComponentDetails struct {
	Component *model.Component
	Versions  []*model.ComponentVersion
}

// Get retrieves a component and its versions, newest first.
func (s *ComponentService) Get(ctx context.Context, partNumber string) (*ComponentDetails, error) {
	component, err := s.repo.GetByPartNumber(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, partNumber)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return &ComponentDetails{Component: component, Versions: versions}, nil
}

// ListLatest retrieves the component library joined with latest versions.
func (s *ComponentService) ListLatest(
	ctx context.Context,
	opts model.ComponentsListOptions,
) ([]*model.ComponentWithLatestVersion, error) {
	components, err := s.repo.ListLatest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	return components, nil
}

// CountLatest returns the number of components matching the filters in opts.
func (s *ComponentService) CountLatest(ctx context.Context, opts model.ComponentsListOptions) (int, error) {
	count, err := s.repo.CountLatest(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return count, nil
}

// DrawingURL resolves a stored drawing key to a time-limited download URL.
func (s *ComponentService) DrawingURL(ctx context.Context, filePath string) (string, error) {
	if s.drawings == nil {
		return "", errors.New("drawing storage is not configured")
	}
	if filePath == "" {
		return "", errors.New("file path is required")
	}
	url, err := s.drawings.PresignGet(ctx, filePath, drawingURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign drawing: %w", err)
	}
	return url, nil
}

// Delete removes a component, its versions, and any stored drawings.
func (s *ComponentService) Delete(ctx context.Context, partNumber string) error {
	versions, err := s.repo.ListVersions(ctx, partNumber)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	deleted, err := s.repo.Delete(ctx, partNumber)
	if err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	if !deleted {
		return data.ErrComponentNotFound
	}

	if s.drawings != nil {
		for _, v := range versions {
			if v.FilePath == nil {
				continue
			}
			if delErr := s.drawings.Delete(ctx, *v.FilePath); delErr != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "failed to remove drawing",
					"key", *v.FilePath, "err", delErr)
			}
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "component deleted", "part_number", partNumber)
	}

	return nil
}
