// Package list provides the catalog read commands.
package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/cmd/output"
	"github.com/agentstation/collectionmap/pkg/catalog"
)

// NewInstitutionsCommand creates the institutions command.
func NewInstitutionsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "institutions [ID]",
		Aliases: []string{"institution", "inst"},
		Short:   "List institutions or show one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			formatter := output.NewFormatter(output.DetectFormat(app.OutputFormat()))

			if len(args) == 1 {
				inst, err := store.Institution(ctx, args[0])
				if err != nil {
					return err
				}
				return formatter.Format(cmd.OutOrStdout(), inst)
			}

			institutions, err := store.Institutions(ctx)
			if err != nil {
				return err
			}
			if output.DetectFormat(app.OutputFormat()) != output.FormatTable {
				return formatter.Format(cmd.OutOrStdout(), institutions)
			}
			collections, err := store.Collections(ctx, catalog.CollectionFilter{})
			if err != nil {
				return err
			}
			return formatter.Format(cmd.OutOrStdout(), output.InstitutionsTable(institutions, collections))
		},
	}
}

// NewCollectionsCommand creates the collections command.
func NewCollectionsCommand(app application.Application) *cobra.Command {
	var (
		institutionID string
		geojson       bool
	)

	cmd := &cobra.Command{
		Use:     "collections [ID]",
		Aliases: []string{"collection", "coll"},
		Short:   "List collections or show one",
		Example: `  collectionmap collections --institution 5b0f...
  collectionmap collections --geojson > collections.geojson`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Catalog()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			format := output.DetectFormat(app.OutputFormat())
			formatter := output.NewFormatter(format)

			if len(args) == 1 {
				if geojson {
					return fmt.Errorf("--geojson lists collections and takes no ID")
				}
				coll, err := store.Collection(ctx, args[0])
				if err != nil {
					return err
				}
				return formatter.Format(cmd.OutOrStdout(), coll)
			}

			collections, err := store.Collections(ctx, catalog.CollectionFilter{
				InstitutionID:  institutionID,
				GeolocatedOnly: geojson,
			})
			if err != nil {
				return err
			}
			institutions, err := store.Institutions(ctx)
			if err != nil {
				return err
			}

			if geojson {
				// GeoJSON is JSON whatever --format says.
				fc := catalog.NewFeatureCollection(collections, institutions)
				return (&output.JSONFormatter{Indent: "  "}).Format(cmd.OutOrStdout(), fc)
			}
			if format != output.FormatTable {
				return formatter.Format(cmd.OutOrStdout(), collections)
			}
			return formatter.Format(cmd.OutOrStdout(), output.CollectionsTable(collections, institutions))
		},
	}

	cmd.Flags().StringVarP(&institutionID, "institution", "i", "", "only collections of this institution ID")
	cmd.Flags().BoolVar(&geojson, "geojson", false, "print geolocated collections as a GeoJSON FeatureCollection")

	return cmd
}
