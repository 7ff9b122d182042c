package proteome

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsoSequence(t *testing.T) {
	assert.Equal(t, "MKVJASTAG", IsoSequence("MKVLASTAG"))
	assert.Equal(t, "JJJ", IsoSequence("ilL"))
	assert.Equal(t, "", IsoSequence(""))
	assert.Equal(t, IsoSequence("PEPTIDE"), IsoSequence(IsoSequence("PEPTIDE")))
}

func TestRemovePTMs(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PEPTIDE", "PEPTIDE"},
		{"PEP(Phospho)TIDE", "PEPTIDE"},
		{"PEP[+80]TIDE", "PEPTIDE"},
		{"n[42]PEPTIDEc", "PEPTIDE"},
		{"M(ox)K{x(y)}V", "MKV"},
		{"PEP.TIDE-", "PEPTIDE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RemovePTMs(tt.input), "RemovePTMs(%q)", tt.input)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Header
	}{
		{
			name:   "ensembl",
			header: ">ENSP00000308495.3 pep chromosome:GRCh38:12:25205246:25250929:-1 gene:ENSG00000133703.14 transcript:ENST00000311936.8 gene_biotype:protein_coding",
			want:   Header{TranscriptID: "ENST00000311936", GeneID: "ENSG00000133703"},
		},
		{
			name:   "gencode",
			header: ">ENSP00000493376.2|ENST00000641515.2|ENSG00000186092.7|OTTHUMG00000001094.4|OTTHUMT00000003223.4|OR4F5-201|OR4F5|326",
			want:   Header{TranscriptID: "ENST00000641515", GeneID: "ENSG00000186092"},
		},
		{
			name:   "variant pipeline",
			header: ">alt_3prime.4188_iso2| gene=GENE1 offset=385 ",
			want:   Header{TranscriptID: "alt_3prime.4188_iso2", GeneID: "GENE1", Offset: 385},
		},
		{
			name:   "plain",
			header: ">tx1 some description",
			want:   Header{TranscriptID: "tx1", GeneID: "tx1"},
		},
		{
			name:   "plain with gene tag",
			header: ">tx2 gene=g2",
			want:   Header{TranscriptID: "tx2", GeneID: "g2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeader(tt.header))
		})
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "ENST00000311936", NormalizeID("ENST00000311936.8"))
	assert.Equal(t, "ENST00000311936", NormalizeID("ENST00000311936"))
	assert.Equal(t, "alt.4188_iso2", NormalizeID("alt.4188_iso2"))
	assert.Equal(t, "", NormalizeID(""))
}

const testFASTA = `>ENSP01.1 pep gene:ENSG01.2 transcript:ENST01.3
MKVLAS
TAG*
>tx2| gene=G2 offset=12
PEPTIDEK
`

func TestReadFASTA(t *testing.T) {
	p := New()
	require.NoError(t, ReadFASTA(strings.NewReader(testFASTA), p))
	require.Equal(t, 2, p.Len())

	prot := p.Lookup("ENST01")
	require.NotNil(t, prot)
	assert.Equal(t, "ENSG01", prot.GeneID)
	assert.Equal(t, "MKVJASTAG", prot.Sequence)
	assert.Equal(t, 9, prot.Len())

	prot2 := p.Lookup("tx2")
	require.NotNil(t, prot2)
	assert.Equal(t, "G2", prot2.GeneID)
	assert.Equal(t, "PEPTJDEK", prot2.Sequence)
	off, ok := p.TranslationOffset("tx2")
	assert.True(t, ok)
	assert.Equal(t, 12, off)
	_, ok = p.TranslationOffset("ENST01")
	assert.False(t, ok)

	assert.Nil(t, p.Lookup("missing"))
	assert.Equal(t, []string{"ENST01", "tx2"}, []string{p.Proteins()[0].TranscriptID, p.Proteins()[1].TranscriptID})
}

func TestLoadFASTA_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proteins.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testFASTA))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := LoadFASTA(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestLoadFASTA_Missing(t *testing.T) {
	_, err := LoadFASTA(filepath.Join(t.TempDir(), "missing.fa"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProteome_OffsetsAndSegments(t *testing.T) {
	p := New()
	prot := NewProteinSequence(">tx1 offset=7", "MKV")
	p.Add(prot)
	off, ok := p.TranslationOffset("tx1")
	assert.True(t, ok)
	assert.Equal(t, 7, off)
	assert.Equal(t, 0, p.MappedCount())

	prot.SetSegments([]coords.Segment{{
		Protein: coords.ProteinCoordinates{Start: 0, End: 2},
		Genome:  coords.GenomeCoordinates{Chrom: "1", Start: 1, End: 9, Strand: coords.Forward},
	}})
	assert.Equal(t, 1, p.MappedCount())
	assert.Equal(t, 1, prot.SegmentIndex().Len())
	assert.Equal(t, []string{"tx1"}, p.GeneIDs())
}
