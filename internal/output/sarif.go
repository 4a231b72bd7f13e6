package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/vulnerability"
)

const (
	toolName = "skims"
	toolURI  = "https://github.com/scan-io-git/skims"
)

// WriteSARIF writes vulns as a SARIF 2.1.0 report with one rule per
// finding. SARIF columns are 1-based.
func WriteSARIF(w io.Writer, vulns []vulnerability.Vulnerability, version string) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	if version != "" {
		run.Tool.Driver.SemanticVersion = &version
	}

	rules := map[finding.ID]bool{}
	for _, v := range vulns {
		if !rules[v.Finding] {
			rules[v.Finding] = true
			f := finding.MustGet(v.Finding)
			rule := run.AddRule(string(f.ID)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: toSarifErrorLevel(f.Severity)}).
				WithProperties(sarif.Properties{"cwe": f.CWEs(), "severity": string(f.Severity)})
			title := f.Title
			rule.Name = &title
			rule.ShortDescription = sarif.NewMultiformatMessageString(f.Label())
			rule.FullDescription = sarif.NewMultiformatMessageString(f.Describe(""))
		}

		region := sarif.NewRegion().WithStartLine(v.Line)
		column := v.Column + 1
		region.StartColumn = &column
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(v.Path)).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(string(v.Finding)).
			WithMessage(sarif.NewTextMessage(v.Description)).
			WithLevel(toSarifErrorLevel(v.Severity)).
			WithLocations([]*sarif.Location{location})
		result.Properties = sarif.Properties{
			"method": v.Method,
			"cwe":    v.CWE,
		}
		if v.Snippet != "" {
			result.Properties["snippet"] = v.Snippet
		}
		run.AddResult(result)
	}
	report.AddRun(run)

	if err := report.PrettyWrite(w); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	return nil
}

func toSarifErrorLevel(severity finding.Severity) string {
	switch severity {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
