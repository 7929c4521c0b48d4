package service

import (
	"context"
	"errors"
	"fmt"

	"loadboard/internal/geocode"
	"loadboard/internal/loadform"
	"loadboard/internal/model"
	"loadboard/internal/repository"

	"github.com/rs/zerolog"
)

// LoadService defines operations for loads
type LoadService interface {
	ListLoads(ctx context.Context) ([]model.Load, error)
	GetLoad(ctx context.Context, id string) (*model.Load, error)
	CreateLoad(ctx context.Context, fields model.LoadFields) (*model.Load, error)
	ReplaceLoad(ctx context.Context, id string, fields model.LoadFields) (*model.Load, error)
	PatchLoad(ctx context.Context, id string, patch model.LoadPatch) (*model.Load, error)
	DeleteLoad(ctx context.Context, id string) error

	// OpenForm starts an interactive load form, pre-filled when id is set.
	OpenForm(ctx context.Context, id string, opts loadform.Options) (*loadform.Controller, error)
}

type loadService struct {
	repo     repository.LoadRepository
	geocoder geocode.Gateway
	log      zerolog.Logger
}

// NewLoadService creates a new LoadService
func NewLoadService(repo repository.LoadRepository, geocoder geocode.Gateway, log zerolog.Logger) LoadService {
	return &loadService{
		repo:     repo,
		geocoder: geocoder,
		log:      log.With().Str("component", "loads").Logger(),
	}
}

func (s *loadService) ListLoads(ctx context.Context) ([]model.Load, error) {
	loads, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	if loads == nil {
		loads = []model.Load{}
	}
	return loads, nil
}

func (s *loadService) GetLoad(ctx context.Context, id string) (*model.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoadNotFound
		}
		return nil, fmt.Errorf("failed to find load by id: %w", err)
	}
	return load, nil
}

func (s *loadService) CreateLoad(ctx context.Context, fields model.LoadFields) (*model.Load, error) {
	if err := fields.Patch().Validate(); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create load in repo: %w", err)
	}
	s.log.Info().Str("load_id", id).Msg("load created")
	return s.GetLoad(ctx, id)
}

// ReplaceLoad overwrites every writable field.
func (s *loadService) ReplaceLoad(ctx context.Context, id string, fields model.LoadFields) (*model.Load, error) {
	return s.PatchLoad(ctx, id, fields.Patch())
}

// PatchLoad writes only the fields set in patch. Concurrent writers are
// last-write-wins.
func (s *loadService) PatchLoad(ctx context.Context, id string, patch model.LoadPatch) (*model.Load, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLoadNotFound
		}
		return nil, fmt.Errorf("failed to update load in repo: %w", err)
	}
	return s.GetLoad(ctx, id)
}

// DeleteLoad removes the load for good.
func (s *loadService) DeleteLoad(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLoadNotFound
		}
		return fmt.Errorf("failed to delete load in repo: %w", err)
	}
	s.log.Info().Str("load_id", id).Msg("load deleted")
	return nil
}

func (s *loadService) OpenForm(ctx context.Context, id string, opts loadform.Options) (*loadform.Controller, error) {
	var existing *model.Load
	if id != "" {
		load, err := s.GetLoad(ctx, id)
		if err != nil {
			return nil, err
		}
		existing = load
	}
	opts.Logger = s.log.With().Str("load_id", id).Logger()
	return loadform.New(s.geocoder, s.repo, existing, opts), nil
}
