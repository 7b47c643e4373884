package server

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/view"
)

// Query parameter structs. Empty strings fall back to dashboard defaults
// before validation runs.
type rankingQuery struct {
	Metric string `json:"metric" validate:"rank_metric"`
	Top    int    `json:"top" validate:"gte=0,lte=1000"`
}

type projectionQuery struct {
	X      string   `json:"x" validate:"axis_feature"`
	Y      string   `json:"y" validate:"axis_feature"`
	Genres []string `json:"genre" validate:"max=100,dive,max=200"`
}

type distributionQuery struct {
	Feature string `json:"feature" validate:"dist_feature"`
	Genre   string `json:"genre" validate:"max=200"`
	Bins    int    `json:"bins" validate:"gte=0,lte=500"`
}

// Validator wraps go-playground/validator with the dashboard selector tags.
type Validator struct {
	v *validator.Validate
}

func newValidator() *Validator {
	v := validator.New()
	// report JSON names so messages match the query parameters
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	for tag, allowed := range choiceTags {
		allowed := allowed
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return view.Choose(dataset.Column(fl.Field().String()), allowed) == nil
		})
	}
	return &Validator{v: v}
}

var choiceTags = map[string][]dataset.Column{
	"rank_metric":  view.RankMetrics,
	"axis_feature": view.AxisFeatures,
	"dist_feature": view.DistributionFeatures,
}

// Validate returns an *APIError with per-field details, or nil.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make(map[string]string, len(verrs))
	for _, e := range verrs {
		details[e.Field()] = friendlyMessage(e)
	}
	return &APIError{Code: CodeValidation, Message: "validation failed", Details: details}
}

func friendlyMessage(e validator.FieldError) string {
	if allowed, ok := choiceTags[e.Tag()]; ok {
		return "must be one of: " + strings.Join(view.Names(allowed), " ")
	}
	switch e.Tag() {
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "max":
		return "must not exceed " + e.Param()
	default:
		return "is invalid"
	}
}
