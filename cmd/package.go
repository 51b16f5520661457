package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ortelius/pdvd-trust/backend"
	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/purl"
	"github.com/ortelius/pdvd-trust/sbom"
	"github.com/ortelius/pdvd-trust/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// idFlags are the alternative ways of naming packages on the command line
type idFlags struct {
	maven     []string
	ecosystem string
	namespace string
	name      string
	version   string
	sbomFile  string
}

func (f *idFlags) register(cmd *cobra.Command, batch bool) {
	flags := cmd.Flags()
	flags.StringArrayVar(&f.maven, "maven", nil, "Maven coordinates (g:a:v) or a <dependency> XML fragment")
	flags.StringVar(&f.ecosystem, "ecosystem", "", "OSV ecosystem name, e.g. Maven, npm, PyPI, Go")
	flags.StringVar(&f.namespace, "namespace", "", "package namespace (with --ecosystem)")
	flags.StringVar(&f.name, "name", "", "package name (with --ecosystem)")
	flags.StringVar(&f.version, "version", "", "package version (with --ecosystem)")
	if batch {
		flags.StringVar(&f.sbomFile, "sbom", "", "add every component of a CycloneDX SBOM")
	}
}

// fromEcosystem builds the identifier described by --ecosystem and friends.
// ok is false when none of those flags were given.
func (f *idFlags) fromEcosystem() (id purl.Identifier, ok bool, err error) {
	if f.name == "" {
		if f.ecosystem != "" || f.namespace != "" || f.version != "" {
			return purl.Identifier{}, false, errors.New("--ecosystem, --namespace and --version require --name")
		}
		return purl.Identifier{}, false, nil
	}
	id, err = util.IdentifierFromEcosystem(f.ecosystem, f.namespace, f.name, f.version)
	if err != nil {
		return purl.Identifier{}, false, err
	}
	return id, true, nil
}

// identifier resolves exactly one package. Invalid input is an error.
func (a *app) identifier(args []string, f *idFlags) (purl.Identifier, error) {
	var ids []purl.Identifier
	for _, arg := range args {
		id, err := purl.Parse(arg)
		if err != nil {
			return purl.Identifier{}, err
		}
		ids = append(ids, id)
	}
	for _, m := range f.maven {
		id, err := purl.FromMaven(m)
		if err != nil {
			return purl.Identifier{}, err
		}
		ids = append(ids, id)
	}
	if id, ok, err := f.fromEcosystem(); err != nil {
		return purl.Identifier{}, err
	} else if ok {
		ids = append(ids, id)
	}
	if len(ids) != 1 {
		return purl.Identifier{}, fmt.Errorf("expected exactly one package, got %d", len(ids))
	}
	return ids[0], nil
}

// identifiers resolves a batch. Entries that do not parse are logged and dropped.
func (a *app) identifiers(args []string, f *idFlags) ([]purl.Identifier, error) {
	ids, rejected := purl.ParseAll(args)
	a.warnRejected(rejected)

	for _, m := range f.maven {
		id, err := purl.FromMaven(m)
		if err != nil {
			a.logger.Warn("Dropping invalid Maven coordinates", zap.String("input", m), zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}

	if id, ok, err := f.fromEcosystem(); err != nil {
		return nil, err
	} else if ok {
		ids = append(ids, id)
	}

	if f.sbomFile != "" {
		bom, err := sbom.DecodeFile(f.sbomFile)
		if err != nil {
			return nil, err
		}
		fromBOM, rejected := sbom.Identifiers(bom)
		a.warnRejected(rejected)
		ids = append(ids, fromBOM...)
	}

	if len(ids) == 0 {
		return nil, errors.New("no valid package identifiers given")
	}
	return ids, nil
}

func (a *app) warnRejected(rejected []string) {
	for _, r := range rejected {
		a.logger.Warn("Dropping invalid package URL", zap.String("input", r))
	}
}

func newPackageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "package",
		Aliases: []string{"pkg"},
		Short:   "Query packages in the trust catalog",
	}
	cmd.AddCommand(
		newPackageInfoCmd(a),
		newPackageLookupCmd(a),
		newPackageBatchCmd(a),
		newPackageVersionsCmd(a),
		newPackageGraphCmd(a, "deps", "List the dependencies of packages", "dependencies",
			func(ctx context.Context, s *backend.PackageService, ids []purl.Identifier) ([]string, [][]model.PackageRef, error) {
				res, err := s.DependenciesByIdentifier(ctx, ids)
				return flatten(res, err)
			}),
		newPackageGraphCmd(a, "dependents", "List the packages that depend on packages", "dependents",
			func(ctx context.Context, s *backend.PackageService, ids []purl.Identifier) ([]string, [][]model.PackageRef, error) {
				res, err := s.DependentsByIdentifier(ctx, ids)
				return flatten(res, err)
			}),
	)
	return cmd
}

// infoView is the combined report of package info
type infoView struct {
	Purl         string         `json:"purl" yaml:"purl"`
	Package      *model.Package `json:"package,omitempty" yaml:"package,omitempty"`
	Versions     []refView      `json:"versions" yaml:"versions"`
	Dependencies []refView      `json:"dependencies" yaml:"dependencies"`
	Dependents   []refView      `json:"dependents" yaml:"dependents"`
}

func newPackageInfoCmd(a *app) *cobra.Command {
	var f idFlags
	cmd := &cobra.Command{
		Use:   "info [purl]",
		Short: "Show trust status, versions and dependency graph of one package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identifier(args, &f)
			if err != nil {
				return err
			}
			view, err := a.info(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(view, func(w io.Writer) { writeInfo(w, view) })
		},
	}
	f.register(cmd, false)
	return cmd
}

// info issues the four package queries concurrently. A package missing from
// the catalog is not an error; its graph may still be known.
func (a *app) info(ctx context.Context, id purl.Identifier) (infoView, error) {
	ids := []purl.Identifier{id}
	view := infoView{Purl: id.String()}

	var (
		wg                                sync.WaitGroup
		pkg                               model.Package
		versions                          []model.PackageVersions
		deps                              []model.PackageDependencies
		dependents                        []model.PackageDependents
		lookupErr, versErr, depErr, dtErr error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		pkg, lookupErr = a.packages.Lookup(ctx, id)
	}()
	go func() {
		defer wg.Done()
		versions, versErr = a.packages.Versions(ctx, ids)
	}()
	go func() {
		defer wg.Done()
		deps, depErr = a.packages.Dependencies(ctx, ids)
	}()
	go func() {
		defer wg.Done()
		dependents, dtErr = a.packages.Dependents(ctx, ids)
	}()
	wg.Wait()

	if backend.IsNotFound(lookupErr) {
		a.logger.Debug("Package not in catalog", zap.String("purl", view.Purl))
		lookupErr = nil
	} else if lookupErr == nil {
		view.Package = &pkg
	}
	if err := errors.Join(lookupErr, versErr, depErr, dtErr); err != nil {
		return infoView{}, err
	}

	view.Versions = versionViews(util.Order(a.order, versions[0]))
	view.Dependencies = refViews(deps[0])
	view.Dependents = refViews(dependents[0])
	return view, nil
}

func writeInfo(w io.Writer, view infoView) {
	header(w, view.Purl)
	if view.Package == nil {
		fmt.Fprintf(w, "Trust:\t%s\n", dimStyle.Render("not in catalog"))
	} else {
		fmt.Fprintf(w, "Trust:\t%s\n", trustLabel(view.Package.Trusted))
		if len(view.Package.Vulnerabilities) > 0 {
			fmt.Fprintf(w, "Vulnerabilities:\t%d\n", len(view.Package.Vulnerabilities))
			for _, v := range view.Package.Vulnerabilities {
				fmt.Fprintf(w, "  %s\t%s\n", v.Cve, dimStyle.Render(v.Href))
			}
		}
	}
	fmt.Fprintln(w)
	header(w, "Versions")
	writeRefs(w, view.Versions)
	fmt.Fprintln(w)
	header(w, "Dependencies")
	writeRefs(w, view.Dependencies)
	fmt.Fprintln(w)
	header(w, "Dependents")
	writeRefs(w, view.Dependents)
}

func newPackageLookupCmd(a *app) *cobra.Command {
	var f idFlags
	cmd := &cobra.Command{
		Use:   "lookup [purl]",
		Short: "Fetch the catalog record of one package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identifier(args, &f)
			if err != nil {
				return err
			}
			pkg, err := a.packages.Lookup(cmd.Context(), id)
			if err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("%s is not in the catalog", id)
				}
				return err
			}
			return a.render(pkg, func(w io.Writer) { writePackage(w, id, pkg) })
		},
	}
	f.register(cmd, false)
	return cmd
}

func writePackage(w io.Writer, id purl.Identifier, pkg model.Package) {
	header(w, id.Label())
	display := pkg.Purl
	if display == "" {
		display = id.String()
	}
	fmt.Fprintf(w, "Purl:\t%s\n", display)
	if pkg.Href != "" {
		fmt.Fprintf(w, "Href:\t%s\n", pkg.Href)
	}
	fmt.Fprintf(w, "Trust:\t%s\n", trustLabel(pkg.Trusted))
	if len(pkg.TrustedVersions) > 0 {
		fmt.Fprintln(w, "Trusted versions:")
		writeRefs(w, refViews(pkg.TrustedVersions))
	}
	if len(pkg.Vulnerabilities) > 0 {
		fmt.Fprintln(w, "Vulnerabilities:")
		for _, v := range pkg.Vulnerabilities {
			fmt.Fprintf(w, "  %s\t%s\n", v.Cve, dimStyle.Render(v.Href))
		}
	}
}

func newPackageBatchCmd(a *app) *cobra.Command {
	var f idFlags
	cmd := &cobra.Command{
		Use:   "batch [purl...]",
		Short: "Resolve many packages in one request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.identifiers(args, &f)
			if err != nil {
				return err
			}
			refs, err := a.packages.LookupBatch(cmd.Context(), ids)
			if err != nil {
				return err
			}
			views := refViews(refs)
			return a.render(views, func(w io.Writer) {
				header(w, fmt.Sprintf("%d of %d packages known", len(refs), len(ids)))
				writeRefs(w, views)
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

// entryView pairs a requested identifier with the references returned for it
type entryView struct {
	Purl string    `json:"purl" yaml:"purl"`
	Refs []refView `json:"refs" yaml:"refs"`
}

func newPackageVersionsCmd(a *app) *cobra.Command {
	var f idFlags
	cmd := &cobra.Command{
		Use:   "versions [purl...]",
		Short: "List the known versions of packages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.identifiers(args, &f)
			if err != nil {
				return err
			}
			res, err := a.packages.VersionsByIdentifier(cmd.Context(), ids)
			if err != nil {
				return err
			}
			views := make([]entryView, 0, res.Len())
			for i := range res.Len() {
				key, refs := res.At(i)
				views = append(views, entryView{Purl: key, Refs: versionViews(util.Order(a.order, refs))})
			}
			return a.render(views, func(w io.Writer) { writeEntries(w, views) })
		},
	}
	f.register(cmd, true)
	return cmd
}

type graphQuery func(context.Context, *backend.PackageService, []purl.Identifier) ([]string, [][]model.PackageRef, error)

func newPackageGraphCmd(a *app, use, short, noun string, query graphQuery) *cobra.Command {
	var f idFlags
	cmd := &cobra.Command{
		Use:   use + " [purl...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.identifiers(args, &f)
			if err != nil {
				return err
			}
			keys, values, err := query(cmd.Context(), a.packages, ids)
			if err != nil {
				return fmt.Errorf("querying %s: %w", noun, err)
			}
			views := make([]entryView, 0, len(keys))
			for i, key := range keys {
				views = append(views, entryView{Purl: key, Refs: refViews(values[i])})
			}
			return a.render(views, func(w io.Writer) { writeEntries(w, views) })
		},
	}
	f.register(cmd, true)
	return cmd
}

// flatten turns a keyed batch of reference lists into parallel slices
func flatten[T ~[]model.PackageRef](res model.BatchResult[T], err error) ([]string, [][]model.PackageRef, error) {
	if err != nil {
		return nil, nil, err
	}
	values := make([][]model.PackageRef, 0, res.Len())
	for i := range res.Len() {
		_, v := res.At(i)
		values = append(values, []model.PackageRef(v))
	}
	return res.Keys(), values, nil
}

func writeEntries(w io.Writer, views []entryView) {
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header(w, v.Purl)
		writeRefs(w, v.Refs)
	}
}
