package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tablerecover/tablerecover/internal/assembler"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/output"
	"github.com/tablerecover/tablerecover/internal/pipeline"
	"github.com/tablerecover/tablerecover/internal/runmeta"
	"github.com/tablerecover/tablerecover/internal/runtime"
	"github.com/tablerecover/tablerecover/internal/security"
	"github.com/tablerecover/tablerecover/internal/source/textsource"
	"github.com/tablerecover/tablerecover/internal/source/xlsxsource"
	"github.com/tablerecover/tablerecover/internal/telemetry"
	"github.com/tablerecover/tablerecover/pkg/resume"
	"github.com/tablerecover/tablerecover/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		outputRoot    string
		sheetName     string
		configProfile string
		resumeToken   string
		showVersion   bool
	)

	flag.StringVar(&outputRoot, "output", "outputs", "Output root directory")
	flag.StringVar(&sheetName, "sheet", "", "Sheet to process; required for spreadsheet inputs, forbidden for delimited-text inputs")
	flag.StringVar(&configProfile, "config-profile", config.DefaultConfigProfile, "Named configuration profile recorded on the manifest")
	flag.StringVar(&resumeToken, "resume", "", "Resume token from a previous interrupted run")
	flag.BoolVar(&showVersion, "version", false, "Print the build version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Version())
		return
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tablerecover [flags] <input file>...")
		os.Exit(2)
	}

	logger := zlog.With().Str("service", "tablerecover").Logger()
	ctx := logger.WithContext(context.Background())

	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid security configuration; set TABLERECOVER_ALLOWED_DIRS")
		os.Exit(1)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "no allowed directories configured; set TABLERECOVER_ALLOWED_DIRS")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.ConfigProfile = configProfile
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("config: invalid option set")
		os.Exit(1)
	}

	var tok *resume.Token
	if resumeToken != "" {
		tok, err = resume.Decode(resumeToken)
		if err != nil {
			logger.Error().Err(err).Msg("resume: invalid token")
			os.Exit(1)
		}
	}

	now := time.Now()
	runID := runmeta.NewRunID(now)
	if tok != nil {
		runID = tok.RunID
	}

	runDir, err := security.ValidateOutputRoot(filepath.Join(outputRoot, runID))
	if err != nil {
		logger.Error().Err(err).Msg("security: invalid output root")
		os.Exit(1)
	}
	csvDir := filepath.Join(runDir, "csv")
	artifactsDir := filepath.Join(runDir, "artifacts")
	logsDir := filepath.Join(runDir, "logs")
	for _, d := range []string{csvDir, artifactsDir, logsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			logger.Error().Err(err).Str("dir", d).Msg("failed to create run subdirectory")
			os.Exit(1)
		}
	}

	txtLog, err := os.OpenFile(filepath.Join(logsDir, "run.log.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open text log sink")
		os.Exit(1)
	}
	defer txtLog.Close()
	jsonlLog, err := os.OpenFile(filepath.Join(logsDir, "run.log.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open jsonl log sink")
		os.Exit(1)
	}
	defer jsonlLog.Close()

	rec := telemetry.NewRecorder(txtLog, jsonlLog)
	ctrl := runtime.NewController(cfg.Limits)
	p := pipeline.New(cfg, ctrl, rec)

	rec.RunStart(runID, strings.Join(inputs, ","))
	start := time.Now()

	var (
		allTables  []assembler.RecoveredTable
		sheetsSeen []string
		formats    = map[string]bool{}
	)

	for fileIdx, input := range inputs {
		if tok != nil && fileIdx < tok.FileIndex {
			continue
		}

		safePath, err := secMgr.ValidateOpenPath(input)
		if err != nil {
			logger.Error().Err(err).Str("input", input).Msg("security: rejected input path")
			rec.Error("main.ValidateOpenPath", err)
			os.Exit(1)
		}

		isText := textsource.ValidateExtension(safePath) == nil
		isXlsx := xlsxsource.ValidateExtension(safePath) == nil
		switch {
		case isText:
			formats["text"] = true
			if sheetName != "" {
				logger.Error().Str("input", input).Msg("sheet name must be empty for delimited-text input")
				os.Exit(1)
			}
			sheet, err := textsource.ReadFile(safePath)
			if err != nil {
				logger.Error().Err(err).Str("input", input).Msg("failed to read delimited-text input")
				rec.Error("main.ReadFile", err)
				os.Exit(1)
			}

			if tok != nil && fileIdx == tok.FileIndex && tok.ShouldSkip(fileIdx, 0) {
				continue
			}
			tables, err := p.ProcessSheet(ctx, pipeline.SheetInput{Sheet: sheet, Source: input})
			if err != nil {
				logger.Error().Err(err).Str("input", input).Msg("pipeline: failed to process sheet")
				rec.Error("pipeline.ProcessSheet", err)
				os.Exit(1)
			}
			allTables = append(allTables, tables...)

		case isXlsx:
			formats["xlsx"] = true
			if sheetName == "" {
				logger.Error().Str("input", input).Msg("sheet name is required for spreadsheet input")
				os.Exit(1)
			}
			src, err := xlsxsource.Open(safePath)
			if err != nil {
				logger.Error().Err(err).Str("input", input).Msg("failed to open workbook")
				rec.Error("xlsxsource.Open", err)
				os.Exit(1)
			}

			names := filterSheet(src.SheetNames(), sheetName)
			if len(names) == 0 {
				logger.Error().Str("sheet", sheetName).Str("input", input).Msg("requested sheet not found")
				src.Close()
				os.Exit(1)
			}

			for sheetIdx, name := range names {
				if tok != nil && fileIdx == tok.FileIndex && tok.ShouldSkip(fileIdx, sheetIdx) {
					continue
				}
				sheet, err := src.ReadSheet(name)
				if err != nil {
					logger.Error().Err(err).Str("sheet", name).Msg("failed to read sheet")
					rec.Error("xlsxsource.ReadSheet", err)
					src.Close()
					os.Exit(1)
				}
				tables, err := p.ProcessSheet(ctx, pipeline.SheetInput{Sheet: sheet, Source: input})
				if err != nil {
					logger.Error().Err(err).Str("sheet", name).Msg("pipeline: failed to process sheet")
					rec.Error("pipeline.ProcessSheet", err)
					src.Close()
					os.Exit(1)
				}
				sheetsSeen = append(sheetsSeen, name)
				allTables = append(allTables, tables...)
			}
			src.Close()

		default:
			logger.Error().Str("input", input).Msg("unsupported input format")
			os.Exit(1)
		}
	}

	items := make([]output.OutputItem, 0, len(allTables))
	outOpts := output.DefaultOptions()
	for i := range allTables {
		rt := &allTables[i]
		path, err := output.WriteTable(runDir, csvDir, *rt, rt.Key, now, cfg, outOpts)
		if err != nil {
			logger.Error().Err(err).Str("key", rt.Key).Msg("failed to write table")
			rec.Error("output.WriteTable", err)
			os.Exit(1)
		}
		rt.Meta.Artifact = path
		rec.ExportCSV(rt.Meta.BlockID, path, len(rt.Rows), len(rt.Columns))
		items = append(items, output.OutputItem{
			Key:  rt.Key,
			Name: rt.Key,
			Path: path,
			Rows: len(rt.Rows),
			Cols: len(rt.Columns),
		})
	}

	if err := output.WriteMetadata(artifactsDir, allTables); err != nil {
		logger.Error().Err(err).Msg("failed to write metadata artifact")
		rec.Error("output.WriteMetadata", err)
		os.Exit(1)
	}

	format := "mixed"
	if len(formats) == 1 {
		for f := range formats {
			format = f
		}
	}

	manifest := output.Manifest{
		RunID:         runID,
		Source:        strings.Join(inputs, ","),
		Format:        format,
		Sheets:        sheetsSeen,
		ConfigProfile: cfg.ConfigProfile,
		StartedAtUTC:  start.UTC().Format(time.RFC3339),
		FinishedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Outputs:       items,
		Warnings:      output.WarningCounts(allTables),
	}
	if err := output.WriteManifest(runDir, manifest); err != nil {
		logger.Error().Err(err).Msg("failed to write manifest")
		rec.Error("output.WriteManifest", err)
		os.Exit(1)
	}

	rec.RunEnd(runID, len(items), time.Since(start))
	logger.Info().Str("run_id", runID).Int("tables", len(items)).Str("run_dir", runDir).Msg("run complete")
}

func filterSheet(names []string, want string) []string {
	for _, n := range names {
		if n == want {
			return []string{n}
		}
	}
	return nil
}
