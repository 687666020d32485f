package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/gift-recommender/internal/config"
	"github.com/jonathan/gift-recommender/internal/pipeline"
	"github.com/jonathan/gift-recommender/internal/server"
	"github.com/jonathan/gift-recommender/internal/types"
)

const (
	testVaultFile   = "../../testdata/vault.json"
	testMilestoneID = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
)

// offlineEnv keeps a developer's .env from pointing the tests at real services.
func offlineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "GEMINI_API_KEY", "SUPPLIER_URL", "DEEP_AVAILABILITY_CHECK"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_MODE", "production")
}

func decodeResult(t *testing.T, data []byte) pipeline.Result {
	t.Helper()
	var result pipeline.Result
	require.NoError(t, json.Unmarshal(data, &result), string(data))
	return result
}

func TestGenerate_FromVaultFile(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer

	err := generate(context.Background(), generateOptions{
		Source:   vaultSource{File: testVaultFile},
		Occasion: string(types.OccasionMinor),
	}, &out)
	require.NoError(t, err)

	result := decodeResult(t, out.Bytes())
	assert.Empty(t, result.Error)
	require.Len(t, result.Items, 3)
	for _, item := range result.Items {
		assert.GreaterOrEqual(t, item.Price(), 2000)
		assert.LessOrEqual(t, item.Price(), 5000)
		assert.NotEmpty(t, item.Reason)
	}
}

func TestGenerate_MilestoneSelectsBudget(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer

	err := generate(context.Background(), generateOptions{
		Source:      vaultSource{File: testVaultFile},
		MilestoneID: testMilestoneID,
	}, &out)
	require.NoError(t, err)

	result := decodeResult(t, out.Bytes())
	require.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.GreaterOrEqual(t, item.Price(), 5000)
	}
}

func TestGenerate_VerboseSummary(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer
	outputPath := filepath.Join(t.TempDir(), "result.json")

	err := generate(context.Background(), generateOptions{
		Source:     vaultSource{File: testVaultFile},
		Occasion:   string(types.OccasionMinor),
		OutputPath: outputPath,
		Verbose:    true,
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "✓ aggregate")
	assert.Contains(t, text, "PARTNER PROFILE")
	assert.Contains(t, text, "RECOMMENDATIONS")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.NotEmpty(t, decodeResult(t, data).Items)
}

func TestGenerate_Errors(t *testing.T) {
	offlineEnv(t)

	tests := []struct {
		name    string
		opts    generateOptions
		wantErr string
	}{
		{
			name:    "no vault",
			opts:    generateOptions{},
			wantErr: "either --vault or --vault-id must be provided",
		},
		{
			name:    "both sources",
			opts:    generateOptions{Source: vaultSource{File: testVaultFile, VaultID: testMilestoneID, UserID: testMilestoneID}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "vault id without user",
			opts:    generateOptions{Source: vaultSource{VaultID: testMilestoneID}},
			wantErr: "--user-id is required",
		},
		{
			name:    "database vault without database",
			opts:    generateOptions{Source: vaultSource{VaultID: testMilestoneID, UserID: testMilestoneID}},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "bad milestone id",
			opts:    generateOptions{Source: vaultSource{File: testVaultFile}, MilestoneID: "next-week"},
			wantErr: "invalid milestone id format",
		},
		{
			name:    "missing vault file",
			opts:    generateOptions{Source: vaultSource{File: "does-not-exist.json"}},
			wantErr: "failed to read vault file",
		},
		{
			name:    "missing config file",
			opts:    generateOptions{Source: vaultSource{File: testVaultFile}, ConfigPath: "missing.yaml"},
			wantErr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generate(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate_UnknownOccasion(t *testing.T) {
	offlineEnv(t)

	err := generate(context.Background(), generateOptions{
		Source:   vaultSource{File: testVaultFile},
		Occasion: "graduation",
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, pipeline.ErrUnknownOccasion)
}

func TestRefresh_ExcludesRejected(t *testing.T) {
	offlineEnv(t)
	previousPath := filepath.Join(t.TempDir(), "previous.json")

	err := generate(context.Background(), generateOptions{
		Source:     vaultSource{File: testVaultFile},
		Occasion:   string(types.OccasionMinor),
		OutputPath: previousPath,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(previousPath)
	require.NoError(t, err)
	previous := decodeResult(t, data)
	require.NotEmpty(t, previous.Items)
	rejectedID := previous.Items[0].ID

	var out bytes.Buffer
	err = refresh(context.Background(), refreshOptions{
		Source:       vaultSource{File: testVaultFile},
		PreviousPath: previousPath,
		RejectIDs:    []string{rejectedID},
		Reason:       string(types.RejectShowDifferent),
		Occasion:     string(types.OccasionMinor),
	}, &out)
	require.NoError(t, err)

	result := decodeResult(t, out.Bytes())
	require.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.NotEqual(t, rejectedID, item.ID)
	}
}

func TestRefresh_Errors(t *testing.T) {
	offlineEnv(t)
	previousPath := filepath.Join(t.TempDir(), "previous.json")
	require.NoError(t, os.WriteFile(previousPath, []byte(`{"recommendations":[{"id":"a","source":"test","type":"gift","title":"A"}],"relevant_hints":[]}`), 0644))

	tests := []struct {
		name    string
		opts    refreshOptions
		wantErr string
	}{
		{
			name:    "no previous result",
			opts:    refreshOptions{Source: vaultSource{File: testVaultFile}, Reason: "show_different"},
			wantErr: "--previous is required",
		},
		{
			name:    "no reason",
			opts:    refreshOptions{Source: vaultSource{File: testVaultFile}, PreviousPath: previousPath},
			wantErr: "--reason is required",
		},
		{
			name:    "unknown rejected id",
			opts:    refreshOptions{Source: vaultSource{File: testVaultFile}, PreviousPath: previousPath, Reason: "show_different", RejectIDs: []string{"zzz"}},
			wantErr: `candidate "zzz" is not in the previous result`,
		},
		{
			name:    "unreadable previous result",
			opts:    refreshOptions{Source: vaultSource{File: testVaultFile}, PreviousPath: "nope.json", Reason: "show_different"},
			wantErr: "failed to read previous result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := refresh(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	err := refresh(context.Background(), refreshOptions{
		Source:       vaultSource{File: testVaultFile},
		PreviousPath: previousPath,
		Reason:       "meh",
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, pipeline.ErrInvalidRefreshReason)
}

func TestSelectRejected(t *testing.T) {
	items := []types.Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	all, err := selectRejected(items, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := selectRejected(items, []string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, []string{some[0].ID, some[1].ID})

	_, err = selectRejected(items, []string{"d"})
	assert.Error(t, err)
}

func TestResolveConfig(t *testing.T) {
	offlineEnv(t)

	cfg, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHintLimit, cfg.HintLimit)
	assert.Equal(t, "production", cfg.LogMode)

	path := filepath.Join(t.TempDir(), "recommender.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hint_limit: 4\nsupplier_url: http://catalog.local\n"), 0644))
	t.Setenv("SUPPLIER_URL", "http://override.local")

	cfg, err = resolveConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.HintLimit)
	assert.Equal(t, "http://override.local", cfg.SupplierURL)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"hint_limit": -1}`), 0644))
	_, err = resolveConfig(bad)
	assert.Error(t, err)
}

func TestBuildSuppliers(t *testing.T) {
	names := func(cfg config.Config) []string {
		var out []string
		for _, s := range buildSuppliers(cfg) {
			out = append(out, s.Name())
		}
		return out
	}

	assert.Equal(t, []string{"fixture"}, names(config.Config{}))
	assert.Equal(t, []string{"catalog"}, names(config.Config{SupplierURL: "http://catalog.local"}))
	assert.Equal(t, []string{"catalog", "fixture"}, names(config.Config{SupplierURL: "http://catalog.local", UseFixtureSupplier: true}))
}

func TestMintToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-development-tokens")
	t.Setenv("JWT_ISSUER", "")
	userID := "99999999-8888-4777-8666-555555555555"

	token, err := mintToken(userID)
	require.NoError(t, err)

	cfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(cfg).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID().String())

	_, err = mintToken("not-a-uuid")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = mintToken(userID)
	assert.ErrorContains(t, err, "JWT_SECRET")
}
