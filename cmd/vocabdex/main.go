package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okanehara/vocabdex/pkg/article"
	"github.com/okanehara/vocabdex/pkg/config"
	"github.com/okanehara/vocabdex/pkg/enrich"
	"github.com/okanehara/vocabdex/pkg/extract"
	"github.com/okanehara/vocabdex/pkg/jmdict"
	"github.com/okanehara/vocabdex/pkg/llm"
	"github.com/okanehara/vocabdex/pkg/store"
	"github.com/okanehara/vocabdex/pkg/tokenize"
	"github.com/okanehara/vocabdex/pkg/topicgen"
	"github.com/okanehara/vocabdex/pkg/vocab"
)

func main() {
	configFlag := flag.String("config", "", "Path to YAML config (falls back to environment)")
	csvFlag := flag.String("csv", "", "CSV file holding the vocabulary table")
	dbFlag := flag.String("db", "", "SQLite snapshot database (overrides config)")

	urlFlag := flag.String("url", "", "URL of an article to extract candidates from")
	fileFlag := flag.String("file", "", "Text file to extract candidates from")

	topicFlag := flag.String("topic", "", "Topic to generate vocabulary for")
	countFlag := flag.Int("count", 20, "How many rows to generate for -topic")
	gptOnlyFlag := flag.Bool("gpt-only", false, "Skip dictionary enrichment of generated rows")

	examplesFlag := flag.Bool("examples", false, "Fill missing example sentences via the language model")
	augmentFlag := flag.Bool("augment", false, "Fill missing readings and meanings from the dictionary")

	fillBlankFlag := flag.Bool("fill-blank-only", false, "Merge policy: never overwrite populated fields")
	preferInFlag := flag.Bool("prefer-incoming", false, "Merge policy: incoming fields win conflicts")

	topKFlag := flag.Int("top-k", 80, "Maximum extracted candidates")
	minFreqFlag := flag.Int("min-freq", 2, "Minimum frequency for single-word candidates")
	noPhrasesFlag := flag.Bool("no-phrases", false, "Disable multi-token phrase candidates")
	maxNgramFlag := flag.Int("max-ngram", 3, "Longest phrase window in tokens")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg.Log)

	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	if err := run(ctx, cfg, log, options{
		csvPath:    *csvFlag,
		url:        *urlFlag,
		file:       *fileFlag,
		topic:      *topicFlag,
		count:      *countFlag,
		gptOnly:    *gptOnlyFlag,
		examples:   *examplesFlag,
		augment:    *augmentFlag,
		policy:     vocab.Policy{FillBlankOnly: *fillBlankFlag, PreferIncoming: *preferInFlag},
		extractOpt: extract.Options{TopK: *topKFlag, MinFreq: *minFreqFlag, AllowPhrases: !*noPhrasesFlag, MaxNgramLen: *maxNgramFlag},
	}); err != nil {
		log.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	csvPath    string
	url        string
	file       string
	topic      string
	count      int
	gptOnly    bool
	examples   bool
	augment    bool
	policy     vocab.Policy
	extractOpt extract.Options
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, opts options) error {
	if opts.url == "" && opts.file == "" && opts.topic == "" && !opts.examples && !opts.augment {
		return fmt.Errorf("nothing to do: provide -url, -file, -topic, -examples or -augment")
	}

	rows, err := loadTable(cfg, opts.csvPath)
	if err != nil {
		return err
	}
	log.Info("table loaded", slog.Int("rows", len(rows)))

	// The dictionary is optional: a failed download degrades to generated
	// fields only.
	var dict *jmdict.Dict
	if !opts.gptOnly {
		if err := jmdict.EnsureDictionary(ctx, cfg.DictPath, log); err != nil {
			log.Warn("dictionary unavailable, continuing without it", slog.String("error", err.Error()))
		} else {
			start := time.Now()
			dict, err = jmdict.Open(cfg.DictPath)
			if err != nil {
				log.Warn("dictionary load failed", slog.String("error", err.Error()))
			} else {
				log.Info("dictionary loaded",
					slog.Int("spellings", dict.Len()),
					slog.Duration("elapsed", time.Since(start)))
			}
		}
	}

	if opts.url != "" || opts.file != "" {
		extracted, err := extractRows(ctx, log, opts)
		if err != nil {
			return err
		}
		if dict != nil {
			extracted = enrich.New(dict, cfg.Workers, log).Rows(ctx, extracted)
		}
		res := vocab.Merge(rows, extracted, opts.policy)
		rows = res.Rows
		log.Info("extraction merged",
			slog.Int("candidates", len(extracted)),
			slog.Int("added", res.Added),
			slog.Int("updated", res.Updated))
	}

	var client *llm.Client
	if opts.topic != "" || opts.examples {
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for generation")
		}
		client = llm.NewClient(cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature, log)
	}

	if opts.topic != "" {
		gen := topicgen.New(client)
		gen.Logger = log
		if dict != nil {
			gen.Enrich = enrich.New(dict, cfg.Workers, log).One
		}

		avoid := make(map[vocab.Key]struct{}, len(rows))
		for _, r := range rows {
			if r.Term != "" {
				avoid[r.Key()] = struct{}{}
			}
		}
		generated, err := gen.Generate(ctx, opts.topic, topicgen.Options{
			Count:   opts.count,
			GPTOnly: opts.gptOnly,
			Avoid:   avoid,
			OnRound: func(round, collected int) {
				log.Info("generation round done",
					slog.Int("round", round), slog.Int("collected", collected))
			},
		})
		if err != nil {
			return fmt.Errorf("generate topic %q: %w", opts.topic, err)
		}
		res := vocab.Merge(rows, generated, opts.policy)
		rows = res.Rows
		log.Info("generation merged",
			slog.Int("generated", len(generated)),
			slog.Int("added", res.Added))
	}

	if opts.augment && dict != nil {
		rows = enrich.New(dict, cfg.Workers, log).Rows(ctx, rows)
		log.Info("table augmented from dictionary")
	}

	if opts.examples {
		filled, err := client.FillExamples(ctx, rows)
		if err != nil {
			return fmt.Errorf("fill examples: %w", err)
		}
		log.Info("examples filled", slog.Int("count", filled))
	}

	return saveTable(cfg, log, opts.csvPath, rows)
}

// extractRows turns an article URL or a local text file into ranked
// candidate rows.
func extractRows(ctx context.Context, log *slog.Logger, opts options) ([]vocab.Row, error) {
	var text string
	switch {
	case opts.url != "":
		art, err := article.Fetch(ctx, opts.url)
		if err != nil {
			return nil, err
		}
		log.Info("article fetched",
			slog.String("title", art.Title), slog.Int("chars", len(art.Text)))
		text = art.Text
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", opts.file, err)
		}
		text = string(data)
	}

	tok, err := tokenize.NewKagome()
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	return extract.Rows(tok, text, opts.extractOpt), nil
}

// loadTable reads the current table, preferring the CSV file when given
// and falling back to the SQLite snapshot.
func loadTable(cfg *config.Config, csvPath string) ([]vocab.Row, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", csvPath, err)
		}
		defer f.Close()
		return vocab.ReadCSV(f)
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, nil
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load()
}

// saveTable writes the table back to both the CSV file (when given) and
// the SQLite snapshot.
func saveTable(cfg *config.Config, log *slog.Logger, csvPath string, rows []vocab.Row) error {
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", csvPath, err)
		}
		if err := vocab.WriteCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("table written", slog.String("csv", csvPath), slog.Int("rows", len(rows)))
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Save(rows); err != nil {
		return err
	}
	log.Info("snapshot saved", slog.String("db", cfg.DBPath), slog.Int("rows", len(rows)))
	return nil
}
