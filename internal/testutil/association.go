package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Member is one association member fixture.
type Member struct {
	ExpName string `json:"expname"`
	ExpType string `json:"exptype"`
}

// WriteAssociation writes a single-product association named name into dir
// and returns its path.
func WriteAssociation(t *testing.T, dir, name string, members ...Member) string {
	t.Helper()
	doc := map[string]any{
		"asn_type": "image2",
		"asn_rule": "candidate_Asn_Lv2Image",
		"asn_id":   "a3001",
		"asn_pool": "iris_pool",
		"program":  "00001",
		"products": []map[string]any{
			{"name": name, "members": members},
		},
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, "asn_"+name+".json")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}
