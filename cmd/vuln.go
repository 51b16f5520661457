package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ortelius/pdvd-trust/backend"
	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/util"
	"github.com/spf13/cobra"
)

// vulnView adds the derived severity rating to the catalog record
type vulnView struct {
	model.Vulnerability `yaml:",inline"`
	Rating              string `json:"rating" yaml:"rating"`
}

func newVulnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "vuln <cve>",
		Aliases: []string{"cve"},
		Short:   "Show a vulnerability and the packages it affects",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cve := strings.ToUpper(strings.TrimSpace(args[0]))
			if util.IsEmpty(cve) {
				return errors.New("empty CVE id")
			}
			vuln, err := a.vulns.Lookup(cmd.Context(), cve)
			if err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("%s is not in the catalog", cve)
				}
				return err
			}
			view := vulnView{Vulnerability: vuln, Rating: util.VulnerabilitySeverity(vuln)}
			return a.render(view, func(w io.Writer) { writeVuln(w, view) })
		},
	}
}

func writeVuln(w io.Writer, v vulnView) {
	header(w, v.Cve)
	fmt.Fprintf(w, "Severity:\t%s\n", severityLabel(v.Rating))
	if v.Cvss3 != nil {
		fmt.Fprintf(w, "CVSS v3:\t%s (%s)\n", v.Cvss3.Score, v.Cvss3.Status)
	}
	fmt.Fprintf(w, "Summary:\t%s\n", v.Summary)
	fmt.Fprintf(w, "Advisory:\t%s\n", v.Advisory)
	fmt.Fprintln(w)
	header(w, "Affected packages")
	writeRefs(w, refViews(v.Packages))
}
