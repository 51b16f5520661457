package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTrustDecoding(t *testing.T) {
	tests := []struct {
		input string
		want  Trust
	}{
		{`{"purl":"pkg:npm/a@1","href":"h","trusted":true}`, Trusted},
		{`{"purl":"pkg:npm/a@1","href":"h","trusted":false}`, Untrusted},
		{`{"purl":"pkg:npm/a@1","href":"h","trusted":null}`, TrustUnknown},
		{`{"purl":"pkg:npm/a@1","href":"h"}`, TrustUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var ref PackageRef
			if err := json.Unmarshal([]byte(tt.input), &ref); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if ref.Trusted != tt.want {
				t.Errorf("Trusted = %v, want %v", ref.Trusted, tt.want)
			}
		})
	}
}

func TestPackageOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(Package{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal(Package{}) = %s, want {}", data)
	}

	data, err = json.Marshal(Package{
		Purl:            "pkg:npm/a@1",
		Trusted:         Untrusted,
		TrustedVersions: []PackageRef{{Purl: "pkg:npm/a@2", Href: "/a/2"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"trusted":false`, `"trustedVersions":[`, `"purl":"pkg:npm/a@1"`} {
		if !strings.Contains(got, want) {
			t.Errorf("Marshal() = %s, missing %s", got, want)
		}
	}
	if strings.Contains(got, `"href":""`) {
		t.Errorf("Marshal() = %s, empty href not omitted", got)
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target any
		field  string
	}{
		{"vulnerability without cve", `{"summary":"s","advisory":"a","packages":[]}`, &Vulnerability{}, "cve"},
		{"vulnerability without packages", `{"cve":"CVE-1","summary":"s","advisory":"a"}`, &Vulnerability{}, "packages"},
		{"cvss3 without status", `{"cve":"CVE-1","summary":"s","advisory":"a","packages":[],"cvss3":{"score":"9.8"}}`, &Vulnerability{}, "status"},
		{"ref without href", `{"purl":"pkg:npm/a@1"}`, &PackageRef{}, "href"},
		{"vuln ref without href", `{"vulnerabilities":[{"cve":"CVE-1"}]}`, &Package{}, "href"},
		{"null cve", `{"cve":null,"summary":"s","advisory":"a","packages":[]}`, &Vulnerability{}, "cve"},
		{"null packages", `{"cve":"CVE-1","summary":"s","advisory":"a","packages":null}`, &Vulnerability{}, "packages"},
		{"ref with null href", `{"purl":"pkg:npm/a@1","href":null}`, &PackageRef{}, "href"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := json.Unmarshal([]byte(tt.input), tt.target)
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("Unmarshal() error = %v, want MissingFieldError", err)
			}
			if missing.Field != tt.field {
				t.Errorf("missing field = %q, want %q", missing.Field, tt.field)
			}
		})
	}
}

func TestVulnerabilityOptionalFields(t *testing.T) {
	input := `{"cve":"CVE-2023-1","summary":"s","advisory":"https://example.test/a","packages":[{"purl":"pkg:npm/a@1","href":"/a"}]}`
	var v Vulnerability
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Severity != nil || v.Cvss3 != nil {
		t.Errorf("optional fields set: %+v", v)
	}
	if len(v.Packages) != 1 || v.Packages[0].Trusted.Known() {
		t.Errorf("packages = %+v", v.Packages)
	}
}

func TestPackageListMarshalsArray(t *testing.T) {
	data, err := json.Marshal(PackageList(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(nil) = %s, want []", data)
	}
	data, _ = json.Marshal(PackageList{"pkg:npm/a@1", "pkg:npm/a@1"})
	if string(data) != `["pkg:npm/a@1","pkg:npm/a@1"]` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestBatchResult(t *testing.T) {
	keys := []string{"a", "b", "a"}
	values := []PackageVersions{{{Purl: "pkg:npm/a@1"}}, {}, {{Purl: "pkg:npm/a@2"}}}

	res, err := NewBatchResult(keys, values)
	if err != nil {
		t.Fatalf("NewBatchResult() error = %v", err)
	}
	if res.Len() != 3 {
		t.Errorf("Len() = %d, want 3", res.Len())
	}
	if got, ok := res.Get("a"); !ok || len(got) != 1 || got[0].Purl != "pkg:npm/a@1" {
		t.Errorf("Get(a) = %v, %v; want first occurrence", got, ok)
	}
	if got, ok := res.Get("b"); !ok || len(got) != 0 {
		t.Errorf("Get(b) = %v, %v", got, ok)
	}
	if _, ok := res.Get("c"); ok {
		t.Errorf("Get(c) found, want missing")
	}
	if k, v := res.At(2); k != "a" || v[0].Purl != "pkg:npm/a@2" {
		t.Errorf("At(2) = %q, %v", k, v)
	}

	if _, err := NewBatchResult([]string{"a"}, []PackageVersions{}); !errors.Is(err, ErrMisaligned) {
		t.Errorf("NewBatchResult() error = %v, want ErrMisaligned", err)
	}
}

func TestPackageIdentifier(t *testing.T) {
	if _, ok := (Package{}).Identifier(); ok {
		t.Errorf("empty package reported an identifier")
	}
	id, ok := Package{Purl: "pkg:npm/lodash@4.17.21"}.Identifier()
	if !ok || id.Name() != "lodash" {
		t.Errorf("Identifier() = %v, %v", id, ok)
	}
}
