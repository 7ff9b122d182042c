package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/pepgenome/internal/duckdb"
)

func newLookupCmd() *cobra.Command {
	var dbPath, peptideSeq, geneID string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up stored peptide mappings",
		Example: `  pepgenome lookup --db mappings.duckdb --peptide PEPTIDEK
  pepgenome lookup --db mappings.duckdb --gene ENSG00000133703`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return usagef("--db is required")
			}
			if (peptideSeq == "") == (geneID == "") {
				return usagef("exactly one of --peptide or --gene is required")
			}
			return runLookup(cmd.OutOrStdout(), dbPath, peptideSeq, geneID)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database written by 'pepgenome map --db'")
	cmd.Flags().StringVar(&peptideSeq, "peptide", "", "Peptide sequence (PTM annotations are ignored)")
	cmd.Flags().StringVar(&geneID, "gene", "", "Gene ID")

	return cmd
}

func runLookup(w io.Writer, dbPath, peptideSeq, geneID string) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var rows []duckdb.MappingRow
	if peptideSeq != "" {
		rows, err = store.LookupPeptide(peptideSeq)
	} else {
		rows, err = store.SearchByGene(geneID)
	}
	if err != nil {
		return err
	}

	if err := writeMappingRows(w, rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no stored mappings found")
	}
	return nil
}

var lookupColumns = []string{
	"Peptide", "Gene", "Transcript", "Protein_position",
	"Chromosome", "Strand", "Start", "End", "Fragments", "Exons", "Mismatches",
}

func writeMappingRows(w io.Writer, rows []duckdb.MappingRow) error {
	var b strings.Builder
	b.WriteString(strings.Join(lookupColumns, "\t") + "\n")
	for _, r := range rows {
		b.WriteString(strings.Join([]string{
			r.Peptide,
			r.GeneID,
			r.TranscriptID,
			strconv.FormatInt(r.ProteinPosition+1, 10),
			r.Chrom,
			r.Strand,
			strconv.FormatInt(r.GenomeStart, 10),
			strconv.FormatInt(r.GenomeEnd, 10),
			r.Fragments,
			r.Exons,
			strconv.FormatInt(r.Mismatches, 10),
		}, "\t") + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
