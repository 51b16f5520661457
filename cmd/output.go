package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/util"
	"gopkg.in/yaml.v2"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7C3AED"))

var trustedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var untrustedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#EF4444"))

var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F59E0B"))

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

// render writes data in the configured format. text is used for the text
// format and receives a tabwriter that is flushed afterwards.
func (a *app) render(data any, text func(w io.Writer)) error {
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = a.out.Write(out)
		return err
	default:
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	}
}

func trustLabel(t model.Trust) string {
	switch t {
	case model.Trusted:
		return trustedStyle.Render("trusted")
	case model.Untrusted:
		return untrustedStyle.Render("untrusted")
	default:
		return dimStyle.Render("unknown")
	}
}

func severityLabel(s string) string {
	switch s {
	case "CRITICAL", "HIGH":
		return untrustedStyle.Render(s)
	case "MEDIUM":
		return warnStyle.Render(s)
	case "UNKNOWN", "NONE":
		return dimStyle.Render(strings.ToLower(s))
	default:
		return s
	}
}

func header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

// refView is the serialized form of a package reference in CLI output
type refView struct {
	Purl    string      `json:"purl" yaml:"purl"`
	Href    string      `json:"href,omitempty" yaml:"href,omitempty"`
	Version string      `json:"version,omitempty" yaml:"version,omitempty"`
	Trusted model.Trust `json:"trusted,omitzero" yaml:"trusted,omitempty"`
}

func refViews(refs []model.PackageRef) []refView {
	views := make([]refView, 0, len(refs))
	for _, r := range refs {
		views = append(views, refView{Purl: r.Purl, Href: r.Href, Trusted: r.Trusted})
	}
	return views
}

func versionViews(refs []util.VersionedRef) []refView {
	views := make([]refView, 0, len(refs))
	for _, r := range refs {
		views = append(views, refView{
			Purl:    r.Ref.Purl,
			Href:    r.Ref.Href,
			Version: r.Version,
			Trusted: r.Ref.Trusted,
		})
	}
	return views
}

func writeRefs(w io.Writer, refs []refView) {
	if len(refs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  (none)"))
		return
	}
	for _, r := range refs {
		if r.Version != "" {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", r.Version, trustLabel(r.Trusted), r.Purl)
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\n", r.Purl, trustLabel(r.Trusted))
	}
}
