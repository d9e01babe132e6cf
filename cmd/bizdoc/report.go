package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mayedalfalasi/bizdoc-min/internal/pipeline"
	"github.com/mayedalfalasi/bizdoc-min/internal/render"
)

func newReportCmd() *cobra.Command {
	var (
		text     string
		url      string
		file     string
		out      string
		format   string
		name     string
		language string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate one report from text, a PDF URL, or a local PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := pipeline.New(pipelineConfig(cfg))
			if err != nil {
				return err
			}

			req := pipeline.Request{
				Text:     text,
				URL:      url,
				Filename: name,
				Language: language,
				Format:   render.Format(strings.ToLower(format)),
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				req.FileBase64 = base64.StdEncoding.EncodeToString(data)
				if req.Filename == "" {
					req.Filename = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}
			}

			doc, err := p.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			dest := out
			if dest == "" {
				dest = doc.Filename
			}
			if err := os.WriteFile(dest, doc.Bytes, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Info().Str("out", dest).Int("bytes", len(doc.Bytes)).Msg("wrote report")
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Literal document text to analyze")
	cmd.Flags().StringVar(&url, "url", "", "URL of a PDF to OCR and analyze")
	cmd.Flags().StringVar(&file, "file", "", "Path to a local PDF to OCR and analyze")
	cmd.Flags().StringVar(&out, "out", "", "Output path (defaults to the generated filename)")
	cmd.Flags().StringVar(&format, "format", "pdf", "Output format: pdf or docx")
	cmd.Flags().StringVar(&name, "filename", "", "Base name for the generated report")
	cmd.Flags().StringVar(&language, "language", "eng", "OCR language hint")
	return cmd
}
