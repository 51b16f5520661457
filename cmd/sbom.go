package cmd

import (
	"fmt"
	"io"

	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/purl"
	"github.com/ortelius/pdvd-trust/sbom"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sbomView reports which SBOM components the catalog knows
type sbomView struct {
	File        string    `json:"file" yaml:"file"`
	Components  int       `json:"components" yaml:"components"`
	Identifiers int       `json:"identifiers" yaml:"identifiers"`
	Rejected    []string  `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Packages    []refView `json:"packages" yaml:"packages"`
}

func newSBOMCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sbom",
		Short: "Work with CycloneDX SBOM documents",
	}
	cmd.AddCommand(newSBOMInspectCmd(a))
	return cmd
}

func newSBOMInspectCmd(a *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Resolve every component of an SBOM against the catalog",
		Long: `Decode a CycloneDX SBOM (JSON, or XML for .xml files), extract the package
URL of each top-level component and resolve them all in one batch request.
With --offline only the extracted identifiers are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bom, err := sbom.DecodeFile(args[0])
			if err != nil {
				return err
			}
			ids, rejected := sbom.Identifiers(bom)
			a.warnRejected(rejected)
			a.logger.Debug("SBOM decoded",
				zap.String("file", args[0]),
				zap.Int("identifiers", len(ids)),
				zap.Int("rejected", len(rejected)))

			view := sbomView{
				File:        args[0],
				Identifiers: len(ids) + len(rejected),
				Rejected:    rejected,
			}
			if bom.Components != nil {
				view.Components = len(*bom.Components)
			}

			var refs []model.PackageRef
			switch {
			case offline:
				refs = offlineRefs(ids)
			case len(ids) > 0:
				if refs, err = a.packages.LookupBatch(cmd.Context(), ids); err != nil {
					return err
				}
			}
			view.Packages = refViews(refs)

			return a.render(view, func(w io.Writer) {
				header(w, fmt.Sprintf("%s: %d components, %d with a package URL", view.File, view.Components, view.Identifiers))
				writeRefs(w, view.Packages)
				for _, r := range view.Rejected {
					fmt.Fprintf(w, "  %s\t%s\n", r, warnStyle.Render("invalid purl"))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "list identifiers without querying the catalog")
	return cmd
}

func offlineRefs(ids []purl.Identifier) []model.PackageRef {
	refs := make([]model.PackageRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.PackageRef{Purl: id.String()})
	}
	return refs
}
