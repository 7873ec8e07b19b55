package http_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// findOpenAPIDoc locates the openapi.yaml file by walking up from the test directory.
func findOpenAPIDoc(t *testing.T) string {
	dir, _ := os.Getwd()

	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

// TestOpenAPIDoc loads and validates api/openapi.yaml.
func TestOpenAPIDoc(t *testing.T) {
	docPath := findOpenAPIDoc(t)
	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI doc: %v", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI doc validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/terrain/bearing",
		"/v1/terrain/features",
		"/v1/terrain/profile",
		"/v1/receipts/pending",
		"/v1/receipts/{hash}/witnesses/{witness}/features",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := doc.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in doc", path)
		}
	}

	expectedSchemas := []string{
		"GeoPoint",
		"PathRequest",
		"FeatureSet",
		"ProfileReport",
		"Bearing",
		"WitnessReceipt",
		"ReceiptFeatures",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if doc.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI doc valid: %d paths, %d schemas", len(doc.Paths.Map()), len(doc.Components.Schemas))
}

// TestOpenAPIInfo verifies doc metadata.
func TestOpenAPIInfo(t *testing.T) {
	docPath := findOpenAPIDoc(t)
	data, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI doc: %v", err)
	}

	if doc.Info.Title != "Witness Terrain API" {
		t.Errorf("expected title 'Witness Terrain API', got %q", doc.Info.Title)
	}

	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}

	if doc.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", doc.Info.Title, doc.Info.Version, doc.Servers[0].URL)
}

// TestOpenAPIFeatureSet checks the FeatureSet schema against the JSON the
// handlers emit.
func TestOpenAPIFeatureSet(t *testing.T) {
	data, err := os.ReadFile(findOpenAPIDoc(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	doc, err := (&openapi3.Loader{}).LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI doc: %v", err)
	}

	ref := doc.Components.Schemas["FeatureSet"]
	if ref == nil || ref.Value == nil {
		t.Fatal("FeatureSet schema missing")
	}

	encoded, err := json.Marshal(domain.AbsentFeatures())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		t.Fatal(err)
	}

	props := ref.Value.Properties
	if len(props) != len(fields) {
		t.Errorf("expected %d FeatureSet properties, got %d", len(fields), len(props))
	}
	for name := range fields {
		p := props[name]
		if p == nil || p.Value == nil {
			t.Errorf("property %s not documented", name)
			continue
		}
		if !p.Value.Nullable {
			t.Errorf("property %s should be nullable", name)
		}
		if len(p.Value.Extensions) != 0 {
			t.Errorf("property %s has stray keys %v", name, p.Value.Extensions)
		}
	}
	if p := props["deepest_barrier"]; p != nil && p.Value.Description != "Largest obstruction above the line of sight, in metres" {
		t.Errorf("unexpected deepest_barrier description %q", p.Value.Description)
	}
}
