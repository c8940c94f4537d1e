package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sheetqa/internal/narrative"
	"sheetqa/internal/quality"
	"sheetqa/internal/workbook"
)

func main() {
	inputPath := flag.String("in", "", "path to the spreadsheet to analyze (.xlsx, .xls, or .csv)")
	outputDir := flag.String("out", "", "directory to write the JSON report to (omit to skip saving)")
	asJSON := flag.Bool("json", false, "print the full report as JSON instead of the text summary")
	concurrency := flag.Int("concurrency", 4, "maximum number of sheets analyzed in parallel")
	withNarrative := flag.Bool("narrative", false, "ask the Ollama model for a written quality report")
	ollamaURL := flag.String("ollama-url", "http://localhost:11434", "Ollama server URL for -narrative")
	model := flag.String("model", "llama3.2", "Ollama model for -narrative")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: quality-report -in <file> [-out <dir>] [-json]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if _, err := os.Stat(*inputPath); os.IsNotExist(err) {
		slog.Error("Input file not found", "path", *inputPath)
		os.Exit(1)
	}

	loader := workbook.NewLoader(logger)

	var wb *quality.Workbook
	var err error
	if workbook.IsCSV(*inputPath) {
		wb, err = loader.LoadCSV(*inputPath)
	} else {
		wb, err = loader.Load(*inputPath)
	}
	if err != nil {
		slog.Error("Failed to load workbook", "path", *inputPath, "error", err)
		os.Exit(1)
	}

	analyzer := quality.NewAnalyzer(logger)
	analyzer.SetConcurrency(*concurrency)

	report := analyzer.Analyze(context.Background(), wb)
	report.Workbook = filepath.Base(*inputPath)

	if *asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			slog.Error("Failed to encode report", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(quality.RenderSummary(report))
	}

	if *withNarrative {
		client := narrative.NewClient(*ollamaURL, *model, logger)
		result, err := client.Generate(context.Background(),
			narrative.QualityReportPrompt(report), narrative.TechnicalSummary(report))
		if err != nil {
			slog.Error("Failed to generate narrative", "error", err)
			os.Exit(1)
		}
		fmt.Println()
		fmt.Println(result.Text)
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			slog.Error("Failed to create output directory", "dir", *outputDir, "error", err)
			os.Exit(1)
		}

		base := strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))
		outputPath := filepath.Join(*outputDir, fmt.Sprintf("informe_%s_%s.json", base, time.Now().Format("20060102_150405")))

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			slog.Error("Failed to encode report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			slog.Error("Failed to write report", "path", outputPath, "error", err)
			os.Exit(1)
		}

		slog.Info("Report saved", "path", outputPath, "score", report.Score)
	}
}
