package model

import "encoding/json"

// Vulnerability is the catalog record for one CVE
type Vulnerability struct {
	Cve      string       `json:"cve" yaml:"cve"`
	Severity *string      `json:"severity,omitempty" yaml:"severity,omitempty"`
	Cvss3    *Cvss3       `json:"cvss3,omitempty" yaml:"cvss3,omitempty"`
	Summary  string       `json:"summary" yaml:"summary"`
	Advisory string       `json:"advisory" yaml:"advisory"`
	Packages []PackageRef `json:"packages" yaml:"packages"`
}

// UnmarshalJSON requires cve, summary, advisory and packages
func (v *Vulnerability) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Vulnerability", "cve", "summary", "advisory", "packages"); err != nil {
		return err
	}
	type plain Vulnerability
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = Vulnerability(p)
	return nil
}

// Cvss3 holds the CVSS v3 score as reported by the catalog
type Cvss3 struct {
	Score  string `json:"score" yaml:"score"`
	Status string `json:"status" yaml:"status"`
}

// UnmarshalJSON requires score and status
func (c *Cvss3) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Cvss3", "score", "status"); err != nil {
		return err
	}
	type plain Cvss3
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Cvss3(p)
	return nil
}

// VulnerabilityRef links a package to a vulnerability without embedding it
type VulnerabilityRef struct {
	Cve  string `json:"cve" yaml:"cve"`
	Href string `json:"href" yaml:"href"`
}

// UnmarshalJSON requires cve and href
func (r *VulnerabilityRef) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "VulnerabilityRef", "cve", "href"); err != nil {
		return err
	}
	type plain VulnerabilityRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = VulnerabilityRef(p)
	return nil
}
