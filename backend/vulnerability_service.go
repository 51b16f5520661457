package backend

import (
	"context"
	"net/url"

	"github.com/ortelius/pdvd-trust/model"
)

const vulnerabilityPath = "/api/vulnerability"

// VulnerabilityService resolves vulnerability records by CVE id
type VulnerabilityService struct {
	client
}

// NewVulnerabilityService binds a vulnerability client to the backend
func NewVulnerabilityService(b *Backend, opts ...Option) *VulnerabilityService {
	return &VulnerabilityService{client: newClient(b, opts...)}
}

// Lookup fetches the vulnerability record for a CVE id
func (s *VulnerabilityService) Lookup(ctx context.Context, cve string) (model.Vulnerability, error) {
	var vuln model.Vulnerability
	if err := s.getJSON(ctx, vulnerabilityPath, url.Values{"cve": {cve}}, &vuln); err != nil {
		return model.Vulnerability{}, err
	}
	return vuln, nil
}
