// Package schemavalidation checks the published config schema against
// real configuration documents, so the schema in docs/ cannot drift
// from what the daemon actually accepts.
package schemavalidation

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"glaze/internal/config"
)

func TestExampleConfigMatchesSchema(t *testing.T) {
	root := repoRoot(t)
	schema := compileSchema(t, filepath.Join(root, "docs", "schema", "config-v1.schema.json"))

	instanceData, err := os.ReadFile(filepath.Join(root, "docs", "examples", "config-v1.json"))
	if err != nil {
		t.Fatalf("read example config: %v", err)
	}
	var instance any
	if err := json.Unmarshal(instanceData, &instance); err != nil {
		t.Fatalf("unmarshal example config: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		t.Fatalf("example config does not match schema: %v", err)
	}
}

func TestDefaultConfigMatchesSchema(t *testing.T) {
	root := repoRoot(t)
	schema := compileSchema(t, filepath.Join(root, "docs", "schema", "config-v1.schema.json"))

	data, err := json.Marshal(config.DefaultConfig())
	if err != nil {
		t.Fatalf("marshal default config: %v", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		t.Fatalf("unmarshal default config: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		t.Fatalf("default config does not match schema: %v", err)
	}
}

func TestSchemaRejectsInvalidConfig(t *testing.T) {
	root := repoRoot(t)
	schema := compileSchema(t, filepath.Join(root, "docs", "schema", "config-v1.schema.json"))

	cases := []struct {
		name string
		doc  string
	}{
		{"wrong version", `{"version": 2}`},
		{"bad accent", `{"version": 1, "desktop": {"accent": "frosted"}}`},
		{"bad color", `{"version": 1, "desktop": {"color": "red"}}`},
		{"bad peek", `{"version": 1, "peek": "sometimes"}`},
		{"unknown field", `{"version": 1, "transparency": true}`},
		{"bad log level", `{"version": 1, "logging": {"level": "loud"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var instance any
			if err := json.Unmarshal([]byte(tc.doc), &instance); err != nil {
				t.Fatal(err)
			}
			if err := schema.Validate(instance); err == nil {
				t.Errorf("schema accepted invalid document: %s", tc.doc)
			}
		})
	}
}

func compileSchema(t *testing.T, path string) *jsonschema.Schema {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
		t.Fatalf("add schema resource: %v", err)
	}
	schema, err := compiler.Compile(path)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	return schema
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to resolve caller path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
