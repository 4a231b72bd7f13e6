package detectors

import (
	"slices"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/language"
)

var methods = []Method{
	{Name: "java_hardcoded_secret", Finding: finding.F009, Language: language.Java, Check: hardcodedSecret},
	{Name: "javascript_hardcoded_secret", Finding: finding.F009, Language: language.JavaScript, Check: hardcodedSecret},
	{Name: "typescript_hardcoded_secret", Finding: finding.F009, Language: language.TypeScript, Check: hardcodedSecret},
	{Name: "text_hardcoded_secret", Finding: finding.F009, Language: language.Text, Check: textSecret},

	{Name: "terraform_unrestricted_cidr", Finding: finding.F024, Language: language.HCL, Check: terraformUnrestrictedCIDR},
	{Name: "cloudformation_unrestricted_cidr", Finding: finding.F024, Language: language.CloudFormation, Check: cfnUnrestrictedCIDR},

	{Name: "terraform_excessive_permissions", Finding: finding.F031, Language: language.HCL, Check: terraformExcessivePermissions},
	{Name: "cloudformation_excessive_permissions", Finding: finding.F031, Language: language.CloudFormation, Check: cfnExcessivePermissions},

	{Name: "java_insecure_hash", Finding: finding.F052, Language: language.Java, Check: insecureHash},
	{Name: "javascript_insecure_hash", Finding: finding.F052, Language: language.JavaScript, Check: insecureHash},
	{Name: "typescript_insecure_hash", Finding: finding.F052, Language: language.TypeScript, Check: insecureHash},

	{Name: "java_generic_catch", Finding: finding.F060, Language: language.Java, Check: javaGenericCatch},
	{Name: "java_generic_throws", Finding: finding.F060, Language: language.Java, Check: javaGenericThrows},
	{Name: "java_generic_throw", Finding: finding.F060, Language: language.Java, Check: genericThrow},
	{Name: "javascript_generic_throw", Finding: finding.F060, Language: language.JavaScript, Check: genericThrow},
	{Name: "csharp_generic_catch", Finding: finding.F060, Language: language.CSharp, Check: csharpGenericCatch},

	{Name: "java_empty_catch", Finding: finding.F061, Language: language.Java, Check: emptyCatch},
	{Name: "javascript_empty_catch", Finding: finding.F061, Language: language.JavaScript, Check: emptyCatch},
	{Name: "typescript_empty_catch", Finding: finding.F061, Language: language.TypeScript, Check: emptyCatch},
	{Name: "csharp_empty_catch", Finding: finding.F061, Language: language.CSharp, Check: emptyCatch},

	{Name: "terraform_unencrypted_volume", Finding: finding.F250, Language: language.HCL, Check: terraformUnencryptedVolume},
	{Name: "cloudformation_unencrypted_volume", Finding: finding.F250, Language: language.CloudFormation, Check: cfnUnencryptedVolume},

	{Name: "dockerfile_secret", Finding: finding.F359, Language: language.Dockerfile, Check: dockerfileSecret},
}

// Methods returns the method table.
func Methods() []Method {
	return slices.Clone(methods)
}

// Select returns the methods of the given findings, all methods when
// findings is empty.
func Select(findings []finding.ID) []Method {
	if len(findings) == 0 {
		return Methods()
	}
	var out []Method
	for _, m := range methods {
		if slices.Contains(findings, m.Finding) {
			out = append(out, m)
		}
	}
	return out
}

// Languages returns the languages read by ms.
func Languages(ms []Method) []language.Language {
	var out []language.Language
	for _, m := range ms {
		if !slices.Contains(out, m.Language) {
			out = append(out, m.Language)
		}
	}
	slices.Sort(out)
	return out
}
