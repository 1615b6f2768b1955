package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestMonoserveError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *MonoserveError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestMonoserveError_WithContext(t *testing.T) {
	err := New(CategoryBuild, SeverityWarning, "build failed").
		WithContext("workspace", "client").
		WithContext("batch", 1)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["workspace"] != "client" {
		t.Errorf("Context[workspace] = %v, want client", err.Context["workspace"])
	}

	if err.Context["batch"] != 1 {
		t.Errorf("Context[batch] = %v, want 1", err.Context["batch"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	buildErr := New(CategoryBuild, SeverityWarning, "build error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match build category", configErr, CategoryBuild, false},
		{"build error matches build category", buildErr, CategoryBuild, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := WrapRetryable(fmt.Errorf("timeout"), CategoryProxy, SeverityWarning, "timeout")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/path/to/monoserve.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/path/to/monoserve.yaml" {
			t.Errorf("Context[path] = %v, want /path/to/monoserve.yaml", err.Context["path"])
		}
	})

	t.Run("ProxyTimeout", func(t *testing.T) {
		cause := fmt.Errorf("timeout")
		err := ProxyTimeout("http://localhost:5173", cause)
		if err.Category != CategoryProxy {
			t.Errorf("Category = %v, want %v", err.Category, CategoryProxy)
		}
		if !err.Retryable {
			t.Error("ProxyTimeout should be retryable")
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("publish.producer", "unknown workspace")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Context["field"] != "publish.producer" {
			t.Errorf("Context[field] = %v, want publish.producer", err.Context["field"])
		}
		if err.Context["reason"] != "unknown workspace" {
			t.Errorf("Context[reason] = %v, want unknown workspace", err.Context["reason"])
		}
	})
}
