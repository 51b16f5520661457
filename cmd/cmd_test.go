package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ortelius/pdvd-trust/internal/fakecatalog"
	"github.com/ortelius/pdvd-trust/model"
)

const (
	lodash     = "pkg:npm/lodash@4.17.21"
	lodashBase = "pkg:npm/lodash"
	quarkus    = "pkg:maven/io.quarkus/quarkus-core@2.16.2.Final"
	cve        = "CVE-2021-23337"
)

func ref(p string, trust model.Trust) model.PackageRef {
	return model.PackageRef{Purl: p, Href: "/api/package?purl=" + p, Trusted: trust}
}

func testCatalog() *fakecatalog.Catalog {
	score := model.Cvss3{Score: "7.2", Status: "NVD"}
	return &fakecatalog.Catalog{
		Packages: map[string]model.Package{
			lodash: {
				Purl:            lodash,
				Href:            "/api/package?purl=" + lodash,
				Trusted:         model.Untrusted,
				Vulnerabilities: []model.VulnerabilityRef{{Cve: cve, Href: "/api/vulnerability?cve=" + cve}},
			},
			quarkus: {Purl: quarkus, Trusted: model.Trusted},
		},
		Refs: map[string]model.PackageRef{
			lodash:  ref(lodash, model.Untrusted),
			quarkus: ref(quarkus, model.Trusted),
		},
		Versions: map[string][]model.PackageRef{
			lodash: {
				ref("pkg:npm/lodash@4.10.0", model.TrustUnknown),
				ref("pkg:npm/lodash@4.9.0", model.Trusted),
				ref("not-a-purl", model.TrustUnknown),
				ref("pkg:npm/lodash@4.17.21", model.Untrusted),
			},
		},
		Dependencies: map[string][]model.PackageRef{
			quarkus: {ref("pkg:maven/io.smallrye/smallrye-config@2.13.1", model.Trusted)},
		},
		Dependents: map[string][]model.PackageRef{
			lodash: {ref("pkg:npm/async@3.2.4", model.TrustUnknown)},
		},
		Vulnerabilities: map[string]model.Vulnerability{
			cve: {
				Cve:      cve,
				Cvss3:    &score,
				Summary:  "Command injection in template",
				Advisory: "https://github.com/advisories/GHSA-35jh-r3h4-6jhm",
				Packages: []model.PackageRef{ref(lodash, model.Untrusted)},
			},
		},
	}
}

func run(t *testing.T, srv *fakecatalog.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := NewRootCmd(&out)
	root.SetArgs(append([]string{"--backend", srv.URL}, args...))
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func assertOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		i := strings.Index(out, p)
		if i < 0 {
			t.Fatalf("output missing %q:\n%s", p, out)
		}
		if i < last {
			t.Fatalf("%q out of order in:\n%s", p, out)
		}
		last = i
	}
}

func TestPackageInfoText(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "package", "info", lodash)
	if err != nil {
		t.Fatalf("package info error = %v", err)
	}
	for _, want := range []string{"untrusted", cve, "pkg:npm/async@3.2.4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// lexical, descending
	assertOrder(t, out, "Versions", "  4.9.0 ", "  4.17.21 ", "  4.10.0 ")
	if strings.Contains(out, "not-a-purl") {
		t.Errorf("unparseable version listed:\n%s", out)
	}
	if got := len(srv.Requests()); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
}

func TestPackageInfoUnknownPackage(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "-o", "json", "package", "info", "pkg:npm/left-pad@1.3.0")
	if err != nil {
		t.Fatalf("package info error = %v", err)
	}
	var view map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if _, ok := view["package"]; ok {
		t.Errorf("package present for unknown identifier:\n%s", out)
	}
	if string(view["versions"]) != "[]" {
		t.Errorf("versions = %s, want []", view["versions"])
	}
}

func TestPackageVersionsSemantic(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "--order", "semantic", "-o", "json", "package", "versions", lodash)
	if err != nil {
		t.Fatalf("package versions error = %v", err)
	}
	var views []entryView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(views) != 1 || views[0].Purl != lodash {
		t.Fatalf("views = %+v", views)
	}
	var got []string
	for _, r := range views[0].Refs {
		got = append(got, r.Version)
	}
	want := []string{"4.17.21", "4.10.0", "4.9.0"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("versions = %v, want %v", got, want)
	}
	if views[0].Refs[2].Trusted != model.Trusted {
		t.Errorf("trust of 4.9.0 = %v, want trusted", views[0].Refs[2].Trusted)
	}
}

func TestPackageBatchDropsInvalid(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "package", "batch", lodash, "garbage", "--maven", "io.quarkus:quarkus-core:2.16.2.Final")
	if err != nil {
		t.Fatalf("package batch error = %v", err)
	}
	if !strings.Contains(out, "2 of 2 packages known") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodPost || reqs[0].Path != "/api/package" {
		t.Fatalf("requests = %+v", reqs)
	}
	var sent []string
	if err := json.Unmarshal(reqs[0].Body, &sent); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 2 || sent[0] != lodash || sent[1] != quarkus {
		t.Errorf("sent = %v", sent)
	}

	if _, err := run(t, srv, "package", "batch", "garbage"); err == nil {
		t.Errorf("batch of only invalid entries succeeded")
	}
	if _, err := run(t, srv, "package", "batch", lodash, "--namespace", "io.quarkus"); err == nil || !strings.Contains(err.Error(), "require --name") {
		t.Errorf("batch with --namespace but no --name error = %v", err)
	}
}

func TestPackageLookup(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{"purl", []string{lodash}, "untrusted", ""},
		{"maven", []string{"--maven", "io.quarkus:quarkus-core:2.16.2.Final"}, "trusted", ""},
		{"ecosystem", []string{"--ecosystem", "npm", "--name", "lodash", "--version", "4.17.21"}, cve, ""},
		{"not found", []string{"pkg:npm/left-pad@1.3.0"}, "", "not in the catalog"},
		{"invalid", []string{"garbage"}, "", "invalid"},
		{"none", nil, "", "exactly one"},
		{"ecosystem without name", []string{lodash, "--ecosystem", "npm", "--version", "4.17.21"}, "", "require --name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, srv, append([]string{"package", "lookup"}, tt.args...)...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(strings.ToLower(err.Error()), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestPackageGraphYAML(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "-o", "yaml", "package", "deps", quarkus, lodash)
	if err != nil {
		t.Fatalf("package deps error = %v", err)
	}
	assertOrder(t, out, "purl: "+quarkus, "smallrye-config", "purl: "+lodash)
	if !strings.Contains(out, "trusted: true") {
		t.Errorf("trust missing:\n%s", out)
	}

	out, err = run(t, srv, "package", "dependents", lodash)
	if err != nil {
		t.Fatalf("package dependents error = %v", err)
	}
	if !strings.Contains(out, "pkg:npm/async@3.2.4") {
		t.Errorf("dependent missing:\n%s", out)
	}
}

func TestVuln(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	out, err := run(t, srv, "-o", "json", "vuln", strings.ToLower(cve))
	if err != nil {
		t.Fatalf("vuln error = %v", err)
	}
	var view struct {
		Cve    string `json:"cve"`
		Rating string `json:"rating"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if view.Cve != cve || view.Rating != "HIGH" {
		t.Errorf("view = %+v, want %s HIGH", view, cve)
	}

	if _, err := run(t, srv, "vuln", "CVE-0000-0000"); err == nil || !strings.Contains(err.Error(), "not in the catalog") {
		t.Errorf("unknown cve error = %v", err)
	}
}

func writeSBOM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bom.json")
	bom := `{
  "bomFormat": "CycloneDX",
  "specVersion": "1.4",
  "version": 1,
  "components": [
    {"type": "library", "name": "lodash", "purl": "` + lodash + `"},
    {"type": "library", "name": "broken", "purl": "not-a-purl"},
    {"type": "library", "name": "vendored", "version": "1.0.0"},
    {"type": "library", "name": "quarkus-core", "purl": "` + quarkus + `"}
  ]
}`
	if err := os.WriteFile(path, []byte(bom), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSBOMInspect(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())
	path := writeSBOM(t)

	out, err := run(t, srv, "-o", "json", "sbom", "inspect", path)
	if err != nil {
		t.Fatalf("sbom inspect error = %v", err)
	}
	var view sbomView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if view.Components != 4 || view.Identifiers != 3 || len(view.Rejected) != 1 || len(view.Packages) != 2 {
		t.Errorf("view = %+v", view)
	}

	before := len(srv.Requests())
	out, err = run(t, srv, "sbom", "inspect", "--offline", path)
	if err != nil {
		t.Fatalf("sbom inspect --offline error = %v", err)
	}
	if len(srv.Requests()) != before {
		t.Errorf("offline inspect contacted the catalog")
	}
	assertOrder(t, out, lodash, quarkus, "not-a-purl")
}

func TestPing(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())
	out, err := run(t, srv, "ping")
	if err != nil {
		t.Fatalf("ping error = %v", err)
	}
	if !strings.Contains(out, "reachable") {
		t.Errorf("output = %s", out)
	}

	down := fakecatalog.Start(t, &fakecatalog.Catalog{
		Overrides: map[string]fakecatalog.Response{"/": {Status: http.StatusServiceUnavailable}},
	})
	_, err = run(t, down, "ping", "--wait", "1200ms")
	if err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Fatalf("ping error = %v, want not reachable", err)
	}
	if n := len(down.Requests()); n < 2 {
		t.Errorf("attempts = %d, want retries", n)
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	srv := fakecatalog.Start(t, testCatalog())

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("output: json\nversions:\n  order: semantic\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, srv, "--config", cfgPath, "vuln", cve)
	if err != nil {
		t.Fatalf("vuln error = %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Errorf("config output: json not applied:\n%s", out)
	}

	out, err = run(t, srv, "--config", cfgPath, "-o", "text", "vuln", cve)
	if err != nil {
		t.Fatalf("vuln error = %v", err)
	}
	if json.Valid([]byte(out)) || !strings.Contains(out, "Summary:") {
		t.Errorf("flag did not override config file:\n%s", out)
	}

	for _, args := range [][]string{
		{"-o", "xml", "ping"},
		{"--order", "random", "ping"},
		{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "ping"},
	} {
		if _, err := run(t, srv, args...); err == nil {
			t.Errorf("run(%v) succeeded, want error", args)
		}
	}
}
