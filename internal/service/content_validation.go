package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/jbernadas/islalist-pwa/internal/models"
)

// locationValidator checks that the location references of a write form a valid path.
type locationValidator interface {
	ValidateLocation(ctx context.Context, loc models.Location) (models.Location, error)
}

// registerContentValidations adds the enum tags shared by listing and announcement payloads.
func registerContentValidations(v *validator.Validate) {
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.AnnouncementPriority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("announcement_type", func(fl validator.FieldLevel) bool {
		return models.AnnouncementType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("listing_status", func(fl validator.FieldLevel) bool {
		return models.ListingStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		switch models.ListingCondition(fl.Field().String()) {
		case models.ConditionNew, models.ConditionLikeNew, models.ConditionGood, models.ConditionFair, models.ConditionForParts, models.ConditionNotApplicable:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("property_type", func(fl validator.FieldLevel) bool {
		return models.PropertyType(fl.Field().String()).Valid()
	})
}

// LocationInput carries the optional location ids of a write payload.
type LocationInput struct {
	ProvinceID     *string `json:"province_id"`
	MunicipalityID *string `json:"municipality_id"`
	BarangayID     *string `json:"barangay_id"`
}

func (in LocationInput) toModel() models.Location {
	return models.Location{ProvinceID: in.ProvinceID, MunicipalityID: in.MunicipalityID, BarangayID: in.BarangayID}
}

// ScopeQuery carries the location codes of a read request.
type ScopeQuery struct {
	Province     string
	Municipality string
	Barangay     string
}
