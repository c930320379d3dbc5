// Package cli implements the docstruct command line.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/structure"
	"github.com/dgallion1/docstruct/internal/titles"
)

type options struct {
	output      string
	verbose     bool
	noPdftotext bool

	// components only
	repair  bool
	titles  string
	folders string
}

// NewRootCommand builds the docstruct command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "docstruct",
		Short: "Extract tables of contents, indexes and component lists from documents",
		Long: `docstruct reads a document (txt, md, html, pdf, docx, csv or xlsx) and
recovers its structure: a hierarchical table of contents, a back-of-book index,
or the numbered component list of a checklist or course file.

Pass "-" as the file to read plain text from stdin.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log extraction details to stderr")
	root.PersistentFlags().BoolVar(&opts.noPdftotext, "no-pdftotext", false, "Do not fall back to pdftotext for PDFs")

	root.AddCommand(
		newExtractCommand(opts, structure.KindTOC, "Extract the table of contents"),
		newExtractCommand(opts, structure.KindIndex, "Extract the back-of-book index"),
		newComponentsCommand(opts),
		newDetectCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newExtractCommand(opts *options, kind structure.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, kind, args[0])
		},
	}
}

func newComponentsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components <file>",
		Short: "Extract the numbered component list of a checklist or course file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, structure.KindComponents, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.repair, "repair", false, "Repair fragmentary component titles")
	cmd.Flags().StringVar(&opts.titles, "titles", "", "YAML file of known titles for --repair")
	cmd.Flags().StringVar(&opts.folders, "folders", "", "Create one folder per component under this directory")
	return cmd
}

func newDetectCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Report whether a document holds a TOC, an index or a component list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			log := opts.logger(cmd.ErrOrStderr())
			text, err := readInput(cmd, opts, args[0])
			if err != nil {
				return err
			}
			det := detect.New(500, 5, log).Detect(text)
			if format == OutputText {
				writeDetectionText(cmd.OutOrStdout(), args[0], det)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), format, map[string]any{
				"file":      args[0],
				"kind":      det.Kind(),
				"detection": det,
			})
		},
	}
}

func runExtract(cmd *cobra.Command, opts *options, kind structure.Kind, path string) error {
	format, err := parseOutputFormat(opts.output)
	if err != nil {
		return err
	}
	log := opts.logger(cmd.ErrOrStderr())

	xopts := structure.Options{Logger: log, RepairTitles: opts.repair}
	if opts.titles != "" {
		if !opts.repair {
			return fmt.Errorf("--titles requires --repair")
		}
		table, err := titles.Load(opts.titles)
		if err != nil {
			return err
		}
		xopts.KnownTitles = table
	}

	text, err := readInput(cmd, opts, path)
	if err != nil {
		return err
	}
	res, err := structure.Extract(kind, text, xopts)
	if err != nil {
		return err
	}
	log.Debug("extracted", "file", path, "kind", kind, "count", res.Count)

	if format == OutputText {
		writeResultText(cmd.OutOrStdout(), path, res)
	} else if err := writeStructured(cmd.OutOrStdout(), format, res); err != nil {
		return err
	}

	if opts.folders != "" {
		created, err := createComponentFolders(opts.folders, res.Components)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Created %d component folders in %s\n", len(created), opts.folders)
	}
	return nil
}

// readInput returns the normalized text of path, or of stdin for "-".
func readInput(cmd *cobra.Command, opts *options, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return parser.Normalize(string(data)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	_, text, err := parser.ParseFile(bytes.NewReader(data), path, parser.Options{FallbackPdftotext: !opts.noPdftotext})
	if err != nil {
		return "", err
	}
	return text, nil
}
