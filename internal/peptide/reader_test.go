package peptide

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPeptides = "Sample\tPeptide\tPSMs\tQuant\n" +
	"liver\tPEP(Phospho)TIDE\t3\t1.5\n" +
	"liver\tMKVLAS\t\t\n" +
	"\n" +
	"# comment\n" +
	"brain\tVLASTAG\t2\t\t1\tENST01,ENST02\n" +
	"brain\tVLAX\t1\t0.25\t\t\n" +
	"heart\tSTAG\t4\t7"

func TestReader_ReadAll(t *testing.T) {
	r := NewReader(strings.NewReader(testPeptides))
	entries, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 1, r.Skipped())

	assert.Equal(t, &Entry{Line: 2, Sample: "liver", Sequence: "PEP(Phospho)TIDE", PSMs: 3, Quant: 1.5, AllowedMismatches: NoBudget}, entries[0])
	assert.False(t, entries[0].HasBudget())

	assert.Equal(t, 1, entries[1].AllowedMismatches)
	assert.True(t, entries[1].HasBudget())
	assert.Equal(t, "ENST01,ENST02", entries[1].TranscriptFilter)
	assert.Equal(t, 0.0, entries[1].Quant)

	assert.Equal(t, NoBudget, entries[2].AllowedMismatches)
	assert.Equal(t, "all", entries[2].TranscriptFilter)

	// Final line has no trailing newline.
	assert.Equal(t, "STAG", entries[3].Sequence)
	assert.Equal(t, 8, entries[3].Line)
}

func TestReader_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few columns", "s\tPEPTIDE\t1\n"},
		{"bad psm", "s\tPEPTIDE\tx\t1\n"},
		{"bad quant", "s\tPEPTIDE\t1\tq\n"},
		{"bad budget", "s\tPEPTIDE\t1\t1\t-2\tall\n"},
		{"empty peptide", "s\t\t1\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, 1, perr.Line)
		})
	}
}

func TestReader_ContinuesAfterError(t *testing.T) {
	r := NewReader(strings.NewReader("s\tBAD\tx\t1\ns\tGOOD\t1\t1\n"))
	_, err := r.Next()
	require.Error(t, err)

	e, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "GOOD", e.Sequence)

	e, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peptides.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testPeptides))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	entries, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestOpen_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peptides.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testPeptides), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	entries, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
