package testutil

import (
	"context"
	"fmt"

	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/datamodels"
)

// StepEnv is a registry.Env for calling a step function directly.
type StepEnv struct {
	// Refs maps reference type to file path.
	Refs    map[string]string
	Product *association.Product
	// Models defaults to the generic classes.
	Models datamodels.Source
}

func (e *StepEnv) Reference(_ context.Context, refType string) (string, error) {
	path, ok := e.Refs[refType]
	if !ok {
		return "", fmt.Errorf("no %s reference in fixture", refType)
	}
	return path, nil
}

func (e *StepEnv) Open(modelName, path string) (datamodels.Model, error) {
	return e.models().Open(modelName, path)
}

func (e *StepEnv) New(modelName string, rows, cols int) (datamodels.Model, error) {
	return e.models().New(modelName, rows, cols)
}

func (e *StepEnv) models() datamodels.Source {
	if e.Models == nil {
		return datamodels.NewRegistry(datamodels.GenericClasses()...)
	}
	return e.Models
}

func (e *StepEnv) Members(role association.Role) []*association.Member {
	if e.Product == nil {
		return nil
	}
	return e.Product.ByRole(role)
}
