package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/pepgenome/internal/annotation"
	"github.com/inodb/pepgenome/internal/config"
	"github.com/inodb/pepgenome/internal/duckdb"
	"github.com/inodb/pepgenome/internal/kmer"
	"github.com/inodb/pepgenome/internal/mapping"
	"github.com/inodb/pepgenome/internal/output"
	"github.com/inodb/pepgenome/internal/peptide"
	"github.com/inodb/pepgenome/internal/proteome"
)

type mapOptions struct {
	fastaPath      string
	annotationPath string
	peptidePath    string
	outPath        string
	bedPath        string
	dbPath         string
	unmappedPath   string
	noCache        bool
	clearDB        bool
}

func newMapCmd() *cobra.Command {
	var opts mapOptions

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map peptides to genome coordinates",
		Example: `  pepgenome map --fasta proteins.fa --annotation genes.gtf --peptides peptides.tsv
  pepgenome map --fasta proteins.fa.gz --annotation genes.gff3.gz --peptides - --bed out.bed
  pepgenome map --fasta proteins.fa --annotation genes.gtf --peptides p.tsv --mismatches 2 --db mappings.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.fastaPath == "" || opts.annotationPath == "" || opts.peptidePath == "" {
				return usagef("--fasta, --annotation and --peptides are required")
			}
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return usagef("%v", err)
			}
			return runMap(cmd.OutOrStdout(), opts, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.fastaPath, "fasta", "", "Protein FASTA file (optionally gzipped)")
	f.StringVar(&opts.annotationPath, "annotation", "", "GTF or GFF3 annotation (optionally gzipped)")
	f.StringVar(&opts.peptidePath, "peptides", "", "Tab-delimited peptide file ('-' for stdin)")
	f.StringVarP(&opts.outPath, "out", "o", "", "Output file (default: stdout)")
	f.StringVar(&opts.bedPath, "bed", "", "Also write a BED12 track to this file")
	f.StringVar(&opts.dbPath, "db", "", "Also store mappings in this DuckDB database")
	f.StringVar(&opts.unmappedPath, "unmapped", "", "Write peptides without a match to this file")
	f.BoolVar(&opts.noCache, "no-cache", false, "Rebuild the proteome instead of using the cache")
	f.BoolVar(&opts.clearDB, "clear-db", false, "Remove mappings already stored in --db before writing")

	f.Int("kmer-length", 0, "K-mer length of the index")
	f.Int("mismatches", 0, "Default number of allowed substitutions")
	f.Bool("minimum-spacing", false, "Reject substitutions closer than the mismatch budget")
	f.String("feature-mode", "", "Annotation feature driving segments: auto, cds or exon")
	f.Int("workers", 0, "Mapping workers (0 = one per CPU)")
	bindFlag(cmd, config.KeyKmerLength, "kmer-length")
	bindFlag(cmd, config.KeyAllowedMismatches, "mismatches")
	bindFlag(cmd, config.KeyMinimumSpacingMode, "minimum-spacing")
	bindFlag(cmd, config.KeyFeatureMode, "feature-mode")
	bindFlag(cmd, config.KeyWorkers, "workers")

	return cmd
}

// bindFlag lets a command-line flag override a config key when it is set.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func runMap(stdout io.Writer, opts mapOptions, cfg config.Config) error {
	p, err := loadProteome(opts, cfg)
	if err != nil {
		return err
	}

	index, err := kmer.New(cfg.Index())
	if err != nil {
		return err
	}
	index.SetLogger(logger)
	if err := index.Build(p); err != nil {
		return err
	}

	reader, err := peptide.Open(opts.peptidePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	sinks, err := openSinks(stdout, opts)
	if err != nil {
		return err
	}
	defer sinks.close()

	mapper := mapping.NewMapper(index, cfg.AllowedMismatches)
	mapper.SetLogger(logger)

	items := make(chan mapping.WorkItem, 2*max(cfg.Workers, 1))
	readErr := make(chan error, 1)
	go func() {
		defer close(items)
		readErr <- feedPeptides(reader, items)
	}()

	var mapped, unmapped int
	err = mapping.OrderedCollect(mapper.ParallelMap(items, cfg.Workers), func(r mapping.WorkResult) error {
		if r.Mapping.Mapped() {
			mapped++
		} else {
			unmapped++
		}
		return sinks.write(r.Mapping)
	})
	if rerr := <-readErr; rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return err
	}
	if err := sinks.flush(); err != nil {
		return err
	}

	logger.Info("mapped peptides",
		zap.Int("mapped", mapped),
		zap.Int("unmapped", unmapped),
		zap.Int("skipped", reader.Skipped()))

	if sinks.store != nil {
		n, err := sinks.store.CountMappings()
		if err != nil {
			return err
		}
		logger.Info("stored mappings", zap.String("db", sinks.store.Path()), zap.Int64("rows", n))
	}
	return nil
}

// feedPeptides sends every readable entry to items. Malformed rows are
// logged and skipped.
func feedPeptides(reader *peptide.Reader, items chan<- mapping.WorkItem) error {
	seq := 0
	for {
		e, err := reader.Next()
		if err != nil {
			var pe *peptide.ParseError
			if errors.As(err, &pe) {
				logger.Warn("skipping peptide row", zap.Int("line", pe.Line), zap.String("reason", pe.Message))
				continue
			}
			return err
		}
		if e == nil {
			return nil
		}
		items <- mapping.WorkItem{Seq: seq, Entry: e}
		seq++
	}
}

// loadProteome returns the reference proteins with their segments, from the
// proteome cache when it matches the inputs.
func loadProteome(opts mapOptions, cfg config.Config) (*proteome.Proteome, error) {
	fastaFP, err := duckdb.StatFile(opts.fastaPath)
	if err != nil {
		return nil, fmt.Errorf("stat FASTA file: %w", err)
	}
	annotationFP, err := duckdb.StatFile(opts.annotationPath)
	if err != nil {
		return nil, fmt.Errorf("stat annotation file: %w", err)
	}

	mode := cfg.FeatureMode.String()
	pc := duckdb.NewProteomeCache(cfg.CacheDir)
	if !opts.noCache && pc.Valid(fastaFP, annotationFP, mode) {
		p, err := pc.Load()
		if err == nil {
			logger.Info("loaded proteome from cache",
				zap.String("dir", cfg.CacheDir),
				zap.Int("proteins", p.Len()),
				zap.Int("mapped", p.MappedCount()))
			return p, nil
		}
		logger.Warn("proteome cache unreadable, rebuilding", zap.Error(err))
	}

	var (
		p           *proteome.Proteome
		transcripts []*annotation.Transcript
		g           errgroup.Group
	)
	g.Go(func() error {
		var err error
		p, err = proteome.LoadFASTA(opts.fastaPath)
		return err
	})
	g.Go(func() error {
		var err error
		transcripts, err = readTranscripts(opts.annotationPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := annotation.NewBuilder(p, p)
	builder.SetMode(cfg.FeatureMode)
	builder.SetLogger(logger)
	stats := builder.Apply(transcripts)
	logger.Info("built coordinate mapping",
		zap.Int("proteins", p.Len()),
		zap.Int("genes", len(p.GeneIDs())),
		zap.Int("transcripts", stats.Transcripts),
		zap.Int("mapped", stats.Mapped),
		zap.Int("unknown", stats.Unknown),
		zap.Int("segments", stats.Segments))

	if !opts.noCache {
		if err := pc.Write(p, fastaFP, annotationFP, mode); err != nil {
			logger.Warn("could not write proteome cache", zap.Error(err))
		}
	}
	return p, nil
}

func readTranscripts(path string) ([]*annotation.Transcript, error) {
	r, err := annotation.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	r.SetLogger(logger)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if n := r.Skipped(); n > 0 {
		logger.Warn("skipped malformed annotation lines", zap.Int("count", n))
	}
	return annotation.GroupByTranscript(records), nil
}

// sinks fans each mapping out to every requested output.
type sinks struct {
	tab      *output.TabWriter
	bed      *output.BEDWriter
	unmapped *output.UnmappedWriter
	store    *duckdb.Store
	files    []*os.File
}

func openSinks(stdout io.Writer, opts mapOptions) (_ *sinks, err error) {
	s := &sinks{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	out := stdout
	if opts.outPath != "" {
		f, err := s.create(opts.outPath)
		if err != nil {
			return nil, err
		}
		out = f
	}
	s.tab = output.NewTabWriter(out)
	if err := s.tab.WriteHeader(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	if opts.bedPath != "" {
		f, err := s.create(opts.bedPath)
		if err != nil {
			return nil, err
		}
		s.bed = output.NewBEDWriter(f)
		name := strings.TrimSuffix(filepath.Base(opts.bedPath), filepath.Ext(opts.bedPath))
		if err := s.bed.WriteHeader(name); err != nil {
			return nil, fmt.Errorf("write BED header: %w", err)
		}
	}

	if opts.unmappedPath != "" {
		f, err := s.create(opts.unmappedPath)
		if err != nil {
			return nil, err
		}
		s.unmapped = output.NewUnmappedWriter(f)
	}

	if opts.dbPath != "" {
		store, err := duckdb.Open(opts.dbPath)
		if err != nil {
			return nil, err
		}
		s.store = store
		if opts.clearDB {
			if err := store.ClearMappings(); err != nil {
				return nil, fmt.Errorf("clear stored mappings: %w", err)
			}
		}
	}
	return s, nil
}

func (s *sinks) create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	s.files = append(s.files, f)
	return f, nil
}

func (s *sinks) write(m *mapping.PeptideMapping) error {
	if err := s.tab.Write(m); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	if s.bed != nil {
		if err := s.bed.Write(m); err != nil {
			return fmt.Errorf("write BED line: %w", err)
		}
	}
	if s.unmapped != nil {
		if err := s.unmapped.Write(m); err != nil {
			return fmt.Errorf("write unmapped peptide: %w", err)
		}
	}
	if s.store != nil {
		if err := s.store.WriteMappings(duckdb.RowsFromMapping(m)); err != nil {
			return fmt.Errorf("store mapping: %w", err)
		}
	}
	return nil
}

func (s *sinks) flush() error {
	if err := s.tab.Flush(); err != nil {
		return err
	}
	if s.bed != nil {
		if err := s.bed.Flush(); err != nil {
			return err
		}
	}
	if s.unmapped != nil {
		return s.unmapped.Flush()
	}
	return nil
}

func (s *sinks) close() {
	if s.store != nil {
		s.store.Close()
	}
	for _, f := range s.files {
		f.Close()
	}
}
