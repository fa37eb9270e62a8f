package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/internal/models"
	"github.com/brizzai/requestkit/requester"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Adjuster selects routes and overrides their descriptions and headers from a
// YAML adjustments file
type Adjuster struct {
	adjustments models.Adjustments
}

// NewAdjuster creates an Adjuster that keeps every route unchanged
func NewAdjuster() *Adjuster {
	return &Adjuster{}
}

// Load reads adjustments from filePath. An empty path or a missing file leaves
// the adjuster untouched.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		logger.Debug("No adjustments file provided")
		return nil
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}
	if err != nil {
		return err
	}
	return a.Parse(data)
}

// Parse replaces the adjustments with the YAML document in data
func (a *Adjuster) Parse(data []byte) error {
	var adjustments models.Adjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return fmt.Errorf("invalid adjustments: %w", err)
	}
	for _, rh := range adjustments.Headers {
		for _, h := range rh.Headers {
			if h.Field == "" {
				return fmt.Errorf("invalid adjustments: header without field on %s", rh.Path)
			}
		}
	}
	a.adjustments = adjustments
	return nil
}

// Selected reports whether the route is part of the catalogue. Without any
// route selection every route is.
func (a *Adjuster) Selected(path, method string) bool {
	if len(a.adjustments.Routes) == 0 {
		return true
	}
	for _, selection := range a.adjustments.Routes {
		if selection.Path == path {
			return slices.Contains(selection.Methods, method)
		}
	}
	return false
}

// Description returns the override for the route, or original
func (a *Adjuster) Description(path, method, original string) string {
	for _, desc := range a.adjustments.Descriptions {
		if desc.Path != path {
			continue
		}
		for _, update := range desc.Updates {
			if update.Method == method {
				return update.NewDescription
			}
		}
		break
	}
	return original
}

// Headers returns the extra headers configured for the route, in file order
func (a *Adjuster) Headers(path, method string) []requester.Header {
	var headers []requester.Header
	for _, rh := range a.adjustments.Headers {
		if rh.Path == path && (rh.Method == "" || rh.Method == method) {
			headers = append(headers, rh.Headers...)
		}
	}
	return headers
}
