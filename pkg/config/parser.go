package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigLoader defines the interface for loading configs
type ConfigLoader interface {
	Load(path string) (interface{}, error)
	Parse(data []byte) (interface{}, error)
}

type ValidationError struct {
	Field   string
	Message string
}

type Validator interface {
	Validate(config interface{}) []ValidationError
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultValueSetter Handles the interface for setting default values
type DefaultValueSetter interface {
	SetDefaults(config interface{})
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// PipelineLoader uses ConfigLoader for Pipeline configurations
type PipelineLoader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewPipelineLoader creates a new PipelineLoader with the given components
func NewPipelineLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *PipelineLoader {
	return &PipelineLoader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// Load a new pipeline config from YAML file
func (l *PipelineLoader) Load(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses a yaml config
func (l *PipelineLoader) Parse(data []byte) (interface{}, error) {
	// Expand variables if an expander is configured
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	// Unmarshal YAML data into Pipeline struct
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Set default values if a default setter is configured
	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&pipeline)
	}

	// Validate the pipeline configuration
	var allErrors []ValidationError
	for _, validator := range l.validators {
		errors := validator.Validate(&pipeline)
		allErrors = append(allErrors, errors...)
	}

	// Return any validation errors if there are any
	if len(allErrors) > 0 {
		return nil, fmt.Errorf("validation errors: %v", allErrors)
	}

	return &pipeline, nil
}

// PipelineDefaults implements DefaultValueSetter for Pipeline
type PipelineDefaults struct{}

// SetDefaults sets default values for Pipeline
func (d *PipelineDefaults) SetDefaults(config interface{}) {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return
	}

	if pipeline.Source.Language == "" {
		pipeline.Source.Language = "en-US"
	}
	if pipeline.Source.TimeoutSeconds <= 0 {
		pipeline.Source.TimeoutSeconds = 10
	}
	if pipeline.Source.Retry.MaxAttempts <= 0 {
		pipeline.Source.Retry.MaxAttempts = 3
	}
	if pipeline.Source.Retry.DelaySeconds <= 0 {
		pipeline.Source.Retry.DelaySeconds = 2
	}
	if pipeline.Source.RateDelayMS <= 0 {
		pipeline.Source.RateDelayMS = 400
	}
	if pipeline.Mirror.Path == "" {
		pipeline.Mirror.Path = "popular_movies.csv"
	}
	if pipeline.Database.Port <= 0 {
		pipeline.Database.Port = 5432
	}
	if pipeline.Database.SSLMode == "" {
		pipeline.Database.SSLMode = "disable"
	}
	if pipeline.Batch.MaxPages <= 0 {
		pipeline.Batch.MaxPages = 100
	}
	if pipeline.Batch.PagesPerBatch <= 0 {
		pipeline.Batch.PagesPerBatch = 5
	}
}

// RequiredFieldValidator validates required fields for the pipeline
type RequiredFieldValidator struct{}

// Validate checks that all required fields are present
func (v *RequiredFieldValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	if pipeline.Name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "is required"})
	}

	if pipeline.Source.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "source.endpoint", Message: "is required"})
	}

	if pipeline.Source.APIKey == "" {
		errors = append(errors, ValidationError{Field: "source.api_key", Message: "is required"})
	}

	return errors
}

// DatabaseValidator validates the relational store configuration
type DatabaseValidator struct{}

// Validate checks that the database parts form a usable DSN
func (v *DatabaseValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	if pipeline.Database.Host == "" {
		errors = append(errors, ValidationError{Field: "database.host", Message: "is required"})
	}
	if pipeline.Database.User == "" {
		errors = append(errors, ValidationError{Field: "database.user", Message: "is required"})
	}
	if pipeline.Database.DBName == "" {
		errors = append(errors, ValidationError{Field: "database.dbname", Message: "is required"})
	}

	return errors
}

// BatchValidator validates the paging window configuration
type BatchValidator struct{}

// Validate checks that the batch window is coherent
func (v *BatchValidator) Validate(config interface{}) []ValidationError {
	pipeline, ok := config.(*Pipeline)
	if !ok {
		return []ValidationError{{Field: "config", Message: "not a Pipeline"}}
	}

	var errors []ValidationError

	if pipeline.Batch.PagesPerBatch > pipeline.Batch.MaxPages {
		errors = append(errors, ValidationError{
			Field:   "batch.pages_per_batch",
			Message: "must not exceed batch.max_pages",
		})
	}

	return errors
}
