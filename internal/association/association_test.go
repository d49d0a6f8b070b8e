package association

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/pipeerr"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const bgFlatASN = `{
  "asn_type": "image2",
  "asn_rule": "candidate_Asn_Lv2Image",
  "asn_id": "a3001",
  "asn_pool": "pool",
  "version_id": "ignored",
  "products": [
    {
      "name": "raw_science_frame",
      "members": [
        {"expname": "sci.fits", "exptype": "science"},
        {"expname": "bkg.fits", "exptype": "Background"}
      ]
    }
  ]
}`

func TestLoad_ResolvesMembersRelativeToDescriptor(t *testing.T) {
	dir := writeFiles(t, map[string]string{"asn.json": bgFlatASN, "sci.fits": "x", "bkg.fits": "y"})

	asn, err := Load(filepath.Join(dir, "asn.json"))
	require.NoError(t, err)
	assert.Equal(t, "a3001", asn.ID)
	require.Len(t, asn.Products, 1)

	p := asn.Products[0]
	require.Len(t, p.ByRole(RoleScience), 1)
	assert.Equal(t, filepath.Join(dir, "sci.fits"), p.ByRole(RoleScience)[0].Path)
	bkg := p.ByRole(RoleBackground)
	require.Len(t, bkg, 1)
	assert.Equal(t, RoleBackground, bkg[0].ExpType)
	assert.Len(t, asn.Science(), 1)
}

func TestLoad_MissingMemberIsAssociationError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"asn.json": bgFlatASN, "sci.fits": "x"})

	_, err := Load(filepath.Join(dir, "asn.json"))
	require.Error(t, err)
	assert.True(t, pipeerr.IsAssociation(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "bkg.fits")
}

func TestLoad_Failures(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{"products": [`,
		"no products":    `{"asn_id": "x", "products": []}`,
		"no science":     `{"products": [{"name": "p", "members": [{"expname": "sci.fits", "exptype": "background"}]}]}`,
		"unknown role":   `{"products": [{"name": "p", "members": [{"expname": "sci.fits", "exptype": "science"}, {"expname": "sci.fits", "exptype": "flat"}]}]}`,
		"no expname":     `{"products": [{"name": "p", "members": [{"expname": "sci.fits", "exptype": "science"}, {"exptype": "dark"}]}]}`,
		"directory":      `{"products": [{"name": "p", "members": [{"expname": ".", "exptype": "science"}]}]}`,
		"null member":    `{"products": [{"name": "p", "members": [null]}]}`,
		"null product":   `{"products": [null]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"asn.json": body, "sci.fits": "x"})
			_, err := Load(filepath.Join(dir, "asn.json"))
			require.Error(t, err)
			assert.True(t, pipeerr.IsAssociation(err), err.Error())
		})
	}
}

func TestValidate_NullMemberBeforeRoles(t *testing.T) {
	asn, err := Parse([]byte(`{"products": [{"name": "p", "members": [null, {"expname": "sci.fits", "exptype": "science"}]}]}`), t.TempDir())
	require.NoError(t, err)
	assert.Len(t, asn.Science(), 1)

	err = asn.Validate()
	require.Error(t, err)
	assert.True(t, pipeerr.IsAssociation(err))
	assert.Contains(t, err.Error(), "member #0 is null")
}

func TestLoad_MissingDescriptor(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.True(t, pipeerr.IsAssociation(err))
}

func TestParse_KeepsAbsolutePaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "sci.fits")
	raw := `{"products": [{"name": "p", "members": [{"expname": "` + filepath.ToSlash(abs) + `", "exptype": "science"}]}]}`
	asn, err := Parse([]byte(raw), "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(abs), asn.Products[0].Members[0].Path)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleDark.Valid())
	assert.False(t, Role("flat").Valid())
}
