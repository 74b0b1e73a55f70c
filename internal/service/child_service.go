package service

import (
	"context"
	"fmt"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/repository"
	"clairenest/internal/validation"
)

// ChildService manages child profiles. Profiles belong to exactly one parent
// and are never visible to supporters beyond what request titles reveal.
type ChildService struct {
	children *repository.ChildRepository
}

// NewChildService creates a new child service
func NewChildService(children *repository.ChildRepository) *ChildService {
	return &ChildService{children: children}
}

// ChildInput carries the editable fields of a child profile
type ChildInput struct {
	Name       string
	Birthdate  time.Time
	HeightCm   *float64
	WeightKg   *float64
	Milestones []models.Milestone
}

// Create adds a child profile to the parent's account
func (s *ChildService) Create(ctx context.Context, parentID string, input ChildInput) (*models.ChildProfile, error) {
	if err := validateChildInput(input); err != nil {
		return nil, err
	}
	return s.children.CreateChild(&models.ChildProfile{
		ParentID:   parentID,
		Name:       input.Name,
		Birthdate:  input.Birthdate,
		HeightCm:   input.HeightCm,
		WeightKg:   input.WeightKg,
		Milestones: input.Milestones,
	})
}

// Update overwrites a child profile's fields. Owner only.
func (s *ChildService) Update(ctx context.Context, parentID, childID string, input ChildInput) (*models.ChildProfile, error) {
	if err := validateChildInput(input); err != nil {
		return nil, err
	}
	child, err := s.owned(parentID, childID)
	if err != nil {
		return nil, err
	}

	child.Name = input.Name
	child.Birthdate = input.Birthdate
	child.HeightCm = input.HeightCm
	child.WeightKg = input.WeightKg
	child.Milestones = input.Milestones
	if err := s.children.UpdateChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// Delete removes a child profile. Owner only.
func (s *ChildService) Delete(ctx context.Context, parentID, childID string) error {
	if _, err := s.owned(parentID, childID); err != nil {
		return err
	}
	return s.children.DeleteChild(childID)
}

// List returns a parent's child profiles
func (s *ChildService) List(ctx context.Context, parentID string) ([]models.ChildProfile, error) {
	return s.children.ListByParent(parentID)
}

func (s *ChildService) owned(parentID, childID string) (*models.ChildProfile, error) {
	child, err := s.children.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrNotFound
	}
	if child.ParentID != parentID {
		return nil, fmt.Errorf("%w: not this parent's child", ErrUnauthorized)
	}
	return child, nil
}

func validateChildInput(input ChildInput) error {
	if err := validation.ValidateName(input.Name); err != nil {
		return err
	}
	if input.Birthdate.IsZero() || input.Birthdate.After(time.Now()) {
		return validation.ValidationError{Field: "birthdate", Message: "birthdate must be in the past"}
	}
	return nil
}
