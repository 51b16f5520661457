// Package sbom extracts package identifiers from CycloneDX SBOM documents so
// that every component can be resolved in one batch.
package sbom

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/ortelius/pdvd-trust/purl"
)

// Decode reads a CycloneDX document in the given format
func Decode(r io.Reader, format cdx.BOMFileFormat) (*cdx.BOM, error) {
	bom := new(cdx.BOM)
	if err := cdx.NewBOMDecoder(r, format).Decode(bom); err != nil {
		return nil, fmt.Errorf("failed to decode CycloneDX SBOM: %w", err)
	}
	return bom, nil
}

// DecodeFile reads a CycloneDX document from disk. Files ending in .xml are
// decoded as XML, everything else as JSON.
func DecodeFile(path string) (*cdx.BOM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SBOM file: %w", err)
	}
	defer f.Close()

	return Decode(f, FormatFromPath(path))
}

// FormatFromPath picks the decoder format from the file extension
func FormatFromPath(path string) cdx.BOMFileFormat {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return cdx.BOMFileFormatXML
	}
	return cdx.BOMFileFormatJSON
}

// ExtractIdentifiers returns the raw PURL of every top-level component that
// declares one, in document order. Duplicates are kept.
func ExtractIdentifiers(bom *cdx.BOM) []string {
	if bom == nil || bom.Components == nil {
		return []string{}
	}

	out := make([]string, 0, len(*bom.Components))
	for _, c := range *bom.Components {
		if c.PackageURL == "" {
			continue
		}
		out = append(out, c.PackageURL)
	}
	return out
}

// Identifiers extracts and parses the component PURLs. Strings that do not
// parse are returned in rejected instead of failing the SBOM.
func Identifiers(bom *cdx.BOM) (ids []purl.Identifier, rejected []string) {
	return purl.ParseAll(ExtractIdentifiers(bom))
}
