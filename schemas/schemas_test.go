package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gift-recommender/internal/schemas"
)

var schemaFiles = []string{
	"vault.schema.json",
	"result.schema.json",
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(".", schemaFile))
			require.NoError(t, err, "should be able to read schema file")

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj), "schema file should be valid JSON: %s", schemaFile)

			assert.Contains(t, schemaObj, "$schema")
			assert.Contains(t, schemaObj, "properties")
		})
	}
}

func TestVaultSchema_ExampleVault(t *testing.T) {
	err := schemas.ValidateJSON("vault.schema.json", filepath.Join("..", "testdata", "vault.json"))
	assert.NoError(t, err)
}

func TestVaultSchema_RejectsBadProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{"four interests", `{"interests":["a","b","c","d"],"dislikes":["e","f","g","h","i"],"vibes":["romantic"],
			"primary_love_language":"quality_time","secondary_love_language":"receiving_gifts"}`},
		{"unknown vibe", `{"interests":["a","b","c","d","j"],"dislikes":["e","f","g","h","i"],"vibes":["gothic"],
			"primary_love_language":"quality_time","secondary_love_language":"receiving_gifts"}`},
		{"no vibes", `{"interests":["a","b","c","d","j"],"dislikes":["e","f","g","h","i"],"vibes":[],
			"primary_love_language":"quality_time","secondary_love_language":"receiving_gifts"}`},
		{"unknown love language", `{"interests":["a","b","c","d","j"],"dislikes":["e","f","g","h","i"],"vibes":["romantic"],
			"primary_love_language":"gifts","secondary_love_language":"receiving_gifts"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"vault_id":"7d3c1f0e-5a2b-4c8d-9e1f-0a1b2c3d4e5f","profile":` + tt.profile +
				`,"budgets":[{"occasion_type":"just_because","min_cents":0,"max_cents":100,"currency":"USD"}]}`
			err := schemas.ValidateBytes("vault.schema.json", []byte(doc))
			require.Error(t, err)
			_, ok := err.(*schemas.ValidationError)
			assert.True(t, ok, "error should be ValidationError, got %T", err)
		})
	}
}

func TestResultSchema(t *testing.T) {
	valid := `{"recommendations":[{"id":"g1","source":"fixture","type":"gift","title":"Travel Journal","price_cents":2500}],
		"relevant_hints":[]}`
	assert.NoError(t, schemas.ValidateBytes("result.schema.json", []byte(valid)))

	tooMany := `{"recommendations":[
		{"id":"a","source":"s","type":"gift","title":"A"},
		{"id":"b","source":"s","type":"gift","title":"B"},
		{"id":"c","source":"s","type":"gift","title":"C"},
		{"id":"d","source":"s","type":"gift","title":"D"}]}`
	assert.Error(t, schemas.ValidateBytes("result.schema.json", []byte(tooMany)))
}
