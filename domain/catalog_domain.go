package domain

import (
	"fmt"
)

var (
	MessageSuccessGetIngredients = "success get ingredients"
	MessageSuccessGetIngredient  = "success get ingredient"
	MessageSuccessGetTags        = "success get tags"
	MessageSuccessGetTag         = "success get tag"

	MessageFailedGetIngredients = "failed to get ingredients"
	MessageFailedGetIngredient  = "failed to get ingredient"
	MessageFailedGetTags        = "failed to get tags"
	MessageFailedGetTag         = "failed to get tag"

	ErrIngredientNotFound = fmt.Errorf("ingredient %w", ErrNotFound)
	ErrTagNotFound        = fmt.Errorf("tag %w", ErrNotFound)
)

type (
	IngredientResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	TagResponse struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	// IngredientFixture and TagFixture are the records accepted by the catalog loaders.
	IngredientFixture struct {
		Name            string `json:"name" yaml:"name" validate:"required,max=128"`
		MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit" validate:"required,max=64"`
	}

	TagFixture struct {
		Name string `json:"name" yaml:"name" validate:"required,max=32"`
		Slug string `json:"slug" yaml:"slug" validate:"required,max=32,slug"`
	}
)
