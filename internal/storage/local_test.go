package storage

import (
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveOpenRemove(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	filePath := BuildPath(7, "contrato.pdf")
	body := "conteudo do contrato"

	n, err := s.Save(filePath, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)

	rc, err := s.Open(filePath)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, body, string(got))

	require.NoError(t, s.Remove(filePath))
	_, err = s.Open(filePath)
	assert.Error(t, err, "blob should be gone after remove")
}

func TestLocalStoreSaveRefusesOverwrite(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("7/a.txt", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = s.Save("7/a.txt", strings.NewReader("second"))
	assert.Error(t, err)
}

func TestLocalStoreRemoveMissingIsNoop(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Remove("7/missing.pdf"))
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../outside.txt", "7/../../etc/passwd", "/etc/passwd", "."} {
		_, err := s.Save(p, strings.NewReader("x"))
		assert.Error(t, err, "path %q should be rejected", p)
		_, err = s.Open(p)
		assert.Error(t, err, "path %q should be rejected", p)
	}
}

func TestBuildPathShape(t *testing.T) {
	p := BuildPath(42, "Relatorio Final.PDF")
	assert.Regexp(t, regexp.MustCompile(`^42/\d+_[0-9a-f-]{8}\.pdf$`), p)

	// No extension stays extensionless
	p = BuildPath(42, "LICENSE")
	assert.Regexp(t, regexp.MustCompile(`^42/\d+_[0-9a-f-]{8}$`), p)
}

func TestBuildPathUnique(t *testing.T) {
	a := BuildPath(1, "x.pdf")
	b := BuildPath(1, "x.pdf")
	assert.NotEqual(t, a, b)
}

func TestTenantOwns(t *testing.T) {
	p := BuildPath(7, "doc.pdf")
	assert.True(t, TenantOwns(7, p))
	assert.False(t, TenantOwns(70, p))
	assert.False(t, TenantOwns(7, "70/123_abc.pdf"))
}
