package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/ahrav/go-vigil/internal/domain"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// ValidateNodeConfig validates a node's typed configuration: struct
// tag constraints first, then kind-specific semantic rules the tags
// cannot express. All problems are aggregated so the caller sees every
// violation in one pass.
func ValidateNodeConfig(config domain.NodeConfig) error {
	if config == nil {
		return domain.ErrMissingConfig
	}

	var result *multierror.Error

	if err := validate.Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result = multierror.Append(result,
					fmt.Errorf("field %s failed %q validation", fe.Field(), fe.Tag()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	switch cfg := config.(type) {
	case domain.RoiFilterConfig:
		result = multierror.Append(result, validateRoiRegions(cfg))
	case domain.AlertConfig:
		result = multierror.Append(result, validateAlertWindow(cfg))
	}

	return result.ErrorOrNil()
}

// validateRoiRegions checks that every polygon vertex lies inside the
// normalized [0,1]×[0,1] frame square.
func validateRoiRegions(cfg domain.RoiFilterConfig) error {
	var result *multierror.Error
	for ri, region := range cfg.Regions {
		for vi, p := range region {
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				result = multierror.Append(result,
					fmt.Errorf("region %d vertex %d (%.3f, %.3f) is outside the normalized frame",
						ri, vi, p.X, p.Y))
			}
		}
	}
	return result.ErrorOrNil()
}

// validateAlertWindow checks mode-dependent window constraints.
func validateAlertWindow(cfg domain.AlertConfig) error {
	if cfg.Window == nil || !cfg.Window.Enabled {
		return nil
	}

	var result *multierror.Error
	w := cfg.Window
	if w.Mode == "" {
		result = multierror.Append(result,
			fmt.Errorf("enabled window requires a mode"))
	}
	if w.Size < 1 {
		result = multierror.Append(result,
			fmt.Errorf("enabled window requires size >= 1, got %d", w.Size))
	}
	if w.Mode == domain.WindowRatio && w.Threshold > 1 {
		result = multierror.Append(result,
			fmt.Errorf("ratio window threshold must be in [0,1], got %g", w.Threshold))
	}
	return result.ErrorOrNil()
}
