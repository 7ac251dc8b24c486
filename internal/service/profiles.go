package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/storage"
)

var validate = validator.New()

// ProfileRequest is the API shape for creating or updating a profile.
type ProfileRequest struct {
	Name         string  `json:"name" validate:"required"`
	TargetWeight float64 `json:"target_weight" validate:"required,gt=0"`
	Color        string  `json:"color" validate:"required,hexcolor"`
	Birthday     string  `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func ValidateProfileRequest(req *ProfileRequest) error {
	return validate.Struct(req)
}

func SaveProfile(ctx context.Context, repo storage.ProfileRepository, req *ProfileRequest) (*internal.Profile, error) {
	p := &internal.Profile{
		Name:         req.Name,
		TargetWeight: req.TargetWeight,
		Color:        req.Color,
		Birthday:     req.Birthday,
	}
	if err := repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveProfile deletes the profile only. Events classified under the name
// keep rendering and aggregating under the stale identity string.
func RemoveProfile(ctx context.Context, repo storage.ProfileRepository, name string) error {
	return repo.DeleteProfile(ctx, name)
}
