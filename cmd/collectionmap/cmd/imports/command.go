// Package imports provides the import command, which runs a local CSV file
// through the same upload and mapping pipeline as the HTTP API.
package imports

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/cmd/emoji"
	"github.com/agentstation/collectionmap/internal/cmd/output"
	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

type options struct {
	mapSpec string
	strict  bool
	dryRun  bool
}

// NewCommand creates the import command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import institutions and collections from a CSV file",
		Long: `Import parses a CSV file, maps its columns to catalog fields and commits
the rows as institutions and collections.

Without --map the suggested mapping is used. Columns are named by index
or by header text:

  --map "0=institutionName,1=collectionName,Lat=latitude,Lon=longitude"

Known fields: institutionName, collectionName, latitude, longitude, description.`,
		Example: `  # Preview the suggested mapping without writing anything
  collectionmap import holdings.csv --dry-run

  # Import with an explicit mapping, failing on incomplete rows
  collectionmap import holdings.csv --map "Museum=institutionName,Holding=collectionName" --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), app, args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.mapSpec, "map", "m", "", "column mapping as COLUMN=field pairs (default: suggested)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on the first row missing a required value")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show headers and the mapping without committing")

	return cmd
}

func run(ctx context.Context, app application.Application, path string, opts *options, stdout, stderr io.Writer) error {
	svc, err := app.Ingest()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer f.Close()

	id, err := svc.Create(ctx, ingest.File{Name: filepath.Base(path), ContentType: "text/csv", Reader: f})
	if err != nil {
		return err
	}
	preview, err := svc.FindByID(ctx, id)
	if err != nil {
		return err
	}
	for _, w := range preview.Warnings {
		fmt.Fprintf(stderr, "%s row %d: %s\n", emoji.Warning, w.Row, w.Message)
	}

	m := preview.SuggestedMapping
	if opts.mapSpec != "" {
		if m, err = ParseMapping(opts.mapSpec, preview.Headers); err != nil {
			return err
		}
	}

	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)

	if opts.dryRun {
		// The upload is never committed; drop it rather than wait for the reaper.
		if store, err := app.Uploads(); err == nil {
			_ = store.Delete(ctx, id)
		}
		preview.SuggestedMapping = m
		if format == output.FormatTable {
			fmt.Fprintf(stdout, "%s: %d rows\n", preview.FileName, preview.RowCount)
			return formatter.Format(stdout, output.PreviewTable(preview))
		}
		return formatter.Format(stdout, preview)
	}

	var mapOpts []ingest.MapOption
	if opts.strict {
		mapOpts = append(mapOpts, ingest.WithRowMode(mapping.Strict))
	}
	result, err := svc.MapUpload(ctx, id, m, mapOpts...)
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return formatter.Format(stdout, result)
	}
	for _, issue := range result.Skipped {
		fmt.Fprintf(stderr, "%s row %d skipped: %s\n", emoji.Warning, issue.Row, issue.Reason)
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(stderr, "%s row %d: %s\n", emoji.Warning, issue.Row, issue.Reason)
	}
	if err := formatter.Format(stdout, output.ResultTable(result)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s Imported %s\n", emoji.Success, preview.FileName)
	return nil
}

// ParseMapping parses COLUMN=field pairs separated by commas. COLUMN is a
// zero-based index or a header, matched case-insensitively.
func ParseMapping(spec string, headers []string) (mapping.HeaderMapping, error) {
	m := mapping.HeaderMapping{}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		column, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.NewValidationError("map", pair, "expected COLUMN=field")
		}
		column, name = strings.TrimSpace(column), strings.TrimSpace(name)

		col, err := columnIndex(column, headers)
		if err != nil {
			return nil, err
		}
		field, err := mapping.ParseField(name)
		if err != nil {
			return nil, errors.NewValidationError("map", name, err.Error())
		}
		if prev, ok := m[col]; ok {
			return nil, errors.NewValidationError("map", pair, fmt.Sprintf("column %d is already mapped to %s", col, prev))
		}
		m[col] = field
	}
	if len(m) == 0 {
		return nil, errors.NewValidationError("map", spec, "no column mappings given")
	}
	return m, nil
}

func columnIndex(column string, headers []string) (int, error) {
	if col, err := strconv.Atoi(column); err == nil {
		return col, nil
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			return i, nil
		}
	}
	return 0, errors.NewValidationError("map", column, "no column with this header")
}
