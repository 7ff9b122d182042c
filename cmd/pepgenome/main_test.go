package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/pepgenome/internal/duckdb"
)

const (
	testFASTA = ">ENSP01 pep chromosome:GRCh38:1:1001:1030:1 gene:ENSG01 transcript:ENST01\nMKVLASTAGW\n"
	testGTF   = "#!genome-build GRCh38\n" +
		"1\ttest\ttranscript\t1001\t1030\t.\t+\t.\tgene_id \"ENSG01\"; transcript_id \"ENST01\";\n" +
		"1\ttest\tCDS\t1001\t1030\t.\t+\t0\tgene_id \"ENSG01\"; transcript_id \"ENST01\"; exon_id \"E1\";\n"
	testPeptides = "Sample\tPeptide\tPSMs\tQuant\n" +
		"S1\tKVLAS\t2\t1.5\n" +
		"S1\tbroken\n" +
		"S2\tWWWWW\t1\t0\n"
)

// setupRun isolates the home directory and viper state of a CLI run.
func setupRun(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proteins.fa"), []byte(testFASTA), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genes.gtf"), []byte(testGTF), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "peptides.tsv"), []byte(testPeptides), 0644))
	return dir
}

func TestRun_Map(t *testing.T) {
	dir := setupRun(t)
	out := filepath.Join(dir, "out.tsv")
	unmapped := filepath.Join(dir, "unmapped.tsv")
	bed := filepath.Join(dir, "peptides.bed")
	db := filepath.Join(dir, "mappings.duckdb")

	code := run([]string{"map",
		"--fasta", filepath.Join(dir, "proteins.fa"),
		"--annotation", filepath.Join(dir, "genes.gtf"),
		"--peptides", filepath.Join(dir, "peptides.tsv"),
		"--out", out, "--unmapped", unmapped, "--bed", bed, "--db", db,
	})
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#Sample\tPeptide"))

	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "S1", fields[0])
	assert.Equal(t, "KVJAS", fields[1])
	assert.Equal(t, "ENSG01", fields[2])
	assert.Equal(t, "ENST01", fields[3])
	assert.Equal(t, "1", fields[4])
	assert.Equal(t, "+", fields[5])
	assert.Equal(t, "1004", fields[6])
	assert.Equal(t, "1018", fields[7])
	assert.Equal(t, "E1", fields[9])
	assert.Equal(t, "2", fields[10])

	data, err = os.ReadFile(unmapped)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No-Gene\tWWWWW\tNo-Transcript")

	data, err = os.ReadFile(bed)
	require.NoError(t, err)
	assert.Contains(t, string(data), `track name="peptides"`)
	assert.Contains(t, string(data), "1\t1003\t1018\tKVJAS")

	store, err := duckdb.Open(db)
	require.NoError(t, err)
	rows, err := store.LookupPeptide("KVLAS")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ProteinPosition)

	// A rerun with --clear-db replaces the stored rows instead of adding to them.
	viper.Reset()
	require.Equal(t, ExitSuccess, run([]string{"map",
		"--fasta", filepath.Join(dir, "proteins.fa"),
		"--annotation", filepath.Join(dir, "genes.gtf"),
		"--peptides", filepath.Join(dir, "peptides.tsv"),
		"--out", out, "--db", db, "--clear-db",
	}))
	reopened, err := duckdb.Open(db)
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.CountMappings()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// The annotated proteome was cached for the next run.
	_, err = os.Stat(filepath.Join(os.Getenv("HOME"), ".pepgenome", "proteome.gob"))
	assert.NoError(t, err)
}

func TestRun_MapFromCache(t *testing.T) {
	dir := setupRun(t)
	args := []string{"map",
		"--fasta", filepath.Join(dir, "proteins.fa"),
		"--annotation", filepath.Join(dir, "genes.gtf"),
		"--peptides", filepath.Join(dir, "peptides.tsv"),
	}

	first := filepath.Join(dir, "first.tsv")
	require.Equal(t, ExitSuccess, run(append(args, "--out", first)))
	viper.Reset()
	second := filepath.Join(dir, "second.tsv")
	require.Equal(t, ExitSuccess, run(append(args, "--out", second)))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_Usage(t *testing.T) {
	setupRun(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version"}, ExitSuccess},
		{"map without inputs", []string{"map"}, ExitUsage},
		{"unknown flag", []string{"map", "--bogus"}, ExitUsage},
		{"lookup without db", []string{"lookup", "--peptide", "PEPTIDE"}, ExitUsage},
		{"lookup with both selectors", []string{"lookup", "--db", "x.duckdb", "--peptide", "P", "--gene", "G"}, ExitUsage},
		{"invalid config value", []string{"config", "set", "kmer_length", "0"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}

func TestRunConfigSetGet(t *testing.T) {
	setupRun(t)
	require.NoError(t, initConfig(""))

	var buf bytes.Buffer
	require.NoError(t, runConfigSet(&buf, "allowed_mismatches", "2"))
	assert.Contains(t, buf.String(), ".pepgenome.yaml")

	buf.Reset()
	require.NoError(t, runConfigGet(&buf, "allowed_mismatches"))
	assert.Equal(t, "2\n", buf.String())

	buf.Reset()
	require.NoError(t, runConfigShow(&buf))
	assert.Contains(t, buf.String(), "kmer_length: 5")

	assert.Error(t, runConfigGet(&buf, "no_such_key"))
}

func TestWriteMappingRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMappingRows(&buf, []duckdb.MappingRow{{
		Peptide: "PEPTJDE", GeneID: "G1", TranscriptID: "T1", ProteinPosition: 9,
		Chrom: "2", Strand: "-", GenomeStart: 10, GenomeEnd: 30,
		Fragments: "10-30", Exons: "E3", Mismatches: 1,
	}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "PEPTJDE\tG1\tT1\t10\t2\t-\t10\t30\t10-30\tE3\t1", lines[1])
}
