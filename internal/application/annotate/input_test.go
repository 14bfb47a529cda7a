package annotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/hla-annotator/internal/infrastructure/monitoring/logging"
)

func writeMeta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadAccessions_FirstColumnOrderPreserved(t *testing.T) {
	path := writeMeta(t, "PXD000003\textra\tignored\nPXD000001\nPXD000002\n")
	entries, err := ReadAccessions(path, logging.NewNopLogger())
	require.NoError(t, err)

	var accs []string
	for _, e := range entries {
		accs = append(accs, e.Accession)
	}
	assert.Equal(t, []string{"PXD000003", "PXD000001", "PXD000002"}, accs)
}

func TestReadAccessions_HeaderSkipped(t *testing.T) {
	path := writeMeta(t, "Accession\thla_class\tscenario\tdisease\nPXD000001\n")
	entries, err := ReadAccessions(path, logging.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PXD000001", entries[0].Accession)
}

func TestReadAccessions_PriorAnnotationColumns(t *testing.T) {
	path := writeMeta(t, "PXD000001\tI\tCancer\tMelanoma\nPXD000002\tI\t\t\nPXD000003\n")
	entries, err := ReadAccessions(path, logging.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].Prior)
	assert.Equal(t, "I", entries[0].Prior.HLA)
	assert.Equal(t, "Melanoma", entries[0].Prior.Disease)

	// Partial prior columns are not a usable fallback.
	assert.Nil(t, entries[1].Prior)
	assert.Nil(t, entries[2].Prior)
}

func TestReadAccessions_DuplicatesKeepFirst(t *testing.T) {
	path := writeMeta(t, "PXD000001\tI\tCancer\tMelanoma\nPXD000001\tII\tNormal\tCancer\n")
	entries, err := ReadAccessions(path, logging.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "I", entries[0].Prior.HLA)
}

func TestReadAccessions_BlankLinesIgnored(t *testing.T) {
	path := writeMeta(t, "\nPXD000001\n\n   \nPXD000002\n")
	entries, err := ReadAccessions(path, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReadAccessions_EmptyFile(t *testing.T) {
	path := writeMeta(t, "accession\n")
	_, err := ReadAccessions(path, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestReadAccessions_MissingFile(t *testing.T) {
	_, err := ReadAccessions(filepath.Join(t.TempDir(), "absent.txt"), logging.NewNopLogger())
	assert.Error(t, err)
}
