package detectors

import (
	"context"
	stderrors "errors"
	"iter"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/symbolic"
	"github.com/scan-io-git/skims/internal/syntax"
	"github.com/scan-io-git/skims/pkg/shared/errors"
)

type located struct {
	Line   int
	Column int
	Detail string
}

func shardFor(t *testing.T, lang language.Language, path, src string) *graph.Shard {
	t.Helper()
	logger := hclog.NewNullLogger()
	tree := syntax.NewParser(logger).Parse(context.Background(), lang, path, []byte(src))
	require.NoError(t, tree.Err)
	s := graph.NewBuilder(logger).Build(lang, "hash", tree)
	symbolic.NewReducer(logger).Reduce(s)
	s.Seal()
	return s
}

// run executes every method of id for the shard language.
func run(t *testing.T, id finding.ID, s *graph.Shard) []located {
	t.Helper()
	c := &Context{Shard: s, Policy: finding.DefaultPolicy()}
	var out []located
	for _, m := range Select([]finding.ID{id}) {
		hits, err := Run(context.Background(), m, c)
		require.NoError(t, err, m.Name)
		for _, h := range hits {
			n := s.Node(h.Node)
			out = append(out, located{Line: n.Line, Column: n.Column, Detail: h.Detail})
		}
	}
	return out
}

func TestDockerfileSecret(t *testing.T) {
	s := shardFor(t, language.Dockerfile, "Dockerfile", `FROM alpine:3.19
ENV DB_PASSWORD=supersecret123
ENV DB_PASSWORD=${SECRET_REF}
ENV API_TOKEN $TOKEN
ARG API_TOKEN
ENV APP_HOME=/app
ENV AUTHOR=me
LABEL authorUrl="https://example.com"
`)
	assert.Equal(t, []located{{Line: 2, Column: 16, Detail: "DB_PASSWORD"}}, run(t, finding.F359, s))
}

func TestTerraformUnrestrictedCIDR(t *testing.T) {
	s := shardFor(t, language.HCL, "main.tf", `resource "aws_security_group" "open" {
  ingress {
    from_port   = 22
    cidr_blocks = ["0.0.0.0/0"]
  }
}

resource "aws_security_group" "private" {
  ingress {
    cidr_blocks = ["10.0.0.0/24"]
  }
  egress {
    cidr_blocks = ["0.0.0.0/0"]
  }
}

resource "aws_security_group_rule" "v6" {
  type             = "ingress"
  ipv6_cidr_blocks = ["::/0"]
}

resource "aws_security_group_rule" "out" {
  type        = "egress"
  cidr_blocks = ["0.0.0.0/0"]
}
`)
	assert.Equal(t, []located{
		{Line: 4, Column: 19, Detail: "0.0.0.0/0"},
		{Line: 19, Column: 22, Detail: "::/0"},
	}, run(t, finding.F024, s))
}

func TestTerraformRestrictedCIDRIsClean(t *testing.T) {
	s := shardFor(t, language.HCL, "main.tf", `resource "aws_security_group" "web" {
  ingress {
    cidr_blocks = ["10.0.0.0/24"]
  }
}
`)
	assert.Empty(t, run(t, finding.F024, s))
}

func TestTerraformExcessivePermissions(t *testing.T) {
	s := shardFor(t, language.HCL, "iam.tf", `data "aws_iam_policy_document" "admin" {
  statement {
    actions   = ["s3:GetObject", "s3:PutObject"]
    resources = ["*"]
  }
  statement {
    effect    = "Deny"
    actions   = ["*"]
    resources = ["*"]
  }
}

resource "aws_iam_policy" "inline" {
  policy = jsonencode({
    Statement = [{
      Effect   = "Allow"
      Action   = "*"
      Resource = "*"
    }]
  })
}
`)
	got := run(t, finding.F031, s)
	require.Len(t, got, 2)
	assert.Equal(t, located{Line: 3, Column: 33, Detail: "s3:PutObject"}, got[0])
	assert.Equal(t, 17, got[1].Line)
	assert.Equal(t, "*", got[1].Detail)
}

func TestTerraformUnencryptedVolume(t *testing.T) {
	s := shardFor(t, language.HCL, "ebs.tf", `resource "aws_ebs_volume" "plain" {
  size = 10
}
resource "aws_ebs_volume" "off" {
  encrypted = false
}
resource "aws_ebs_volume" "on" {
  encrypted = true
}
resource "aws_ebs_volume" "ref" {
  encrypted = var.encrypt
}
resource "aws_instance" "web" {
  root_block_device {
    encrypted = false
  }
}
`)
	assert.Equal(t, []located{
		{Line: 1, Column: 0, Detail: "aws_ebs_volume.plain"},
		{Line: 5, Column: 14, Detail: "aws_ebs_volume.off"},
		{Line: 15, Column: 16, Detail: "aws_instance.web.root_block_device"},
	}, run(t, finding.F250, s))
}

const template = `AWSTemplateFormatVersion: "2010-09-09"
Resources:
  WebSG:
    Type: AWS::EC2::SecurityGroup
    Properties:
      SecurityGroupIngress:
        - IpProtocol: tcp
          CidrIp: 0.0.0.0/0
        - IpProtocol: tcp
          CidrIp: 10.0.0.0/16
  Data:
    Type: AWS::EC2::Volume
    Properties:
      Size: 10
  Secure:
    Type: AWS::EC2::Volume
    Properties:
      Encrypted: true
  Param:
    Type: AWS::EC2::Volume
    Properties:
      Encrypted: !Ref EncryptVolumes
  Admin:
    Type: AWS::IAM::Policy
    Properties:
      PolicyDocument:
        Statement:
          - Effect: Allow
            Action: "*"
            Resource: "*"
          - Effect: Allow
            Action: s3:GetObject
            Resource: "*"
`

func TestCloudFormation(t *testing.T) {
	s := shardFor(t, language.CloudFormation, "stack.yaml", template)

	assert.Equal(t, []located{{Line: 8, Column: 18, Detail: "0.0.0.0/0"}}, run(t, finding.F024, s))
	assert.Equal(t, []located{{Line: 11, Column: 2, Detail: "Data"}}, run(t, finding.F250, s))
	assert.Equal(t, []located{{Line: 29, Column: 20, Detail: "*"}}, run(t, finding.F031, s))
}

func TestCloudFormationIgnoresOtherYAML(t *testing.T) {
	s := shardFor(t, language.CloudFormation, "deploy.yaml", "apiVersion: v1\nkind: Pod\nspec:\n  containers: []\n")
	assert.Empty(t, run(t, finding.F024, s))
	assert.Empty(t, run(t, finding.F250, s))
}

func TestJavaHardcodedSecret(t *testing.T) {
	s := shardFor(t, language.Java, "Config.java", `class Config {
  private String dbPassword = "hunter2";
  private String user = "admin";
  void f(String env) {
    String apiKey = "abc123";
    String token = env;
    String secret = "";
  }
}
`)
	assert.Equal(t, []located{
		{Line: 2, Column: 17, Detail: "dbPassword"},
		{Line: 5, Column: 11, Detail: "apiKey"},
	}, run(t, finding.F009, s))
}

func TestJavaScriptHardcodedSecret(t *testing.T) {
	s := shardFor(t, language.JavaScript, "config.js", "const config = { password: \"hunter2\", user: \"x\" };\n"+
		"let token = `abc${suffix}`;\n"+
		"const apiKey = \"k-123\";\n")
	assert.Equal(t, []located{
		{Line: 1, Column: 17, Detail: "password"},
		{Line: 3, Column: 6, Detail: "apiKey"},
	}, run(t, finding.F009, s))
}

func TestTextSecret(t *testing.T) {
	s := shardFor(t, language.Text, ".env", "# comment\nDB_PASSWORD=s3cr3t\nAPI_TOKEN=${VAULT_TOKEN}\nDEBUG=true\nAUTHOR=jane\n")
	assert.Equal(t, []located{{Line: 2, Column: 12, Detail: "DB_PASSWORD"}}, run(t, finding.F009, s))
}

func TestJavaHashAndExceptions(t *testing.T) {
	s := shardFor(t, language.Java, "Digest.java", `class Digest {
  byte[] h(byte[] d) throws Exception {
    String alg = "MD5";
    MessageDigest md = MessageDigest.getInstance(alg);
    MessageDigest ok = MessageDigest.getInstance("SHA-256");
    throw new RuntimeException("x");
  }
}
`)
	assert.Equal(t, []located{{Line: 4, Column: 23, Detail: "MD5"}}, run(t, finding.F052, s))
	assert.ElementsMatch(t, []located{
		{Line: 2, Column: 28, Detail: "Exception"},
		{Line: 6, Column: 14, Detail: "RuntimeException"},
	}, run(t, finding.F060, s))
}

func TestJavaScriptInsecureHash(t *testing.T) {
	s := shardFor(t, language.JavaScript, "hash.js", "const crypto = require(\"crypto\");\n"+
		"function digest(data) {\n"+
		"  const alg = \"sha1\";\n"+
		"  return crypto.createHash(alg).update(data).digest(\"hex\");\n"+
		"}\n")
	got := run(t, finding.F052, s)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Line)
	assert.Equal(t, "sha1", got[0].Detail)
}

const catches = `class A {
  void f() {
    try {
      run();
    } catch (IOException e) {
    }
    try {
      run();
    } catch (Exception e) {
      log(e);
    }
  }
}
`

func TestJavaCatches(t *testing.T) {
	s := shardFor(t, language.Java, "A.java", catches)
	assert.Equal(t, []located{{Line: 5, Column: 6, Detail: "IOException"}}, run(t, finding.F061, s))
	assert.Equal(t, []located{{Line: 9, Column: 13, Detail: "Exception"}}, run(t, finding.F060, s))
}

func TestJavaScriptEmptyCatch(t *testing.T) {
	s := shardFor(t, language.JavaScript, "app.js", `function f() {
  try {
    run();
  } catch (e) {}
  try {
    run();
  } catch (e) {
    report(e);
  }
}
`)
	assert.Equal(t, []located{{Line: 4, Column: 4, Detail: "exception"}}, run(t, finding.F061, s))
}

func TestCSharpGenericCatch(t *testing.T) {
	s := shardFor(t, language.CSharp, "A.cs", `class A {
  void F() {
    try { Run(); } catch (Exception e) { Log(e); }
    try { Run(); } catch (IOException e) { Log(e); }
  }
}
`)
	assert.Equal(t, []located{{Line: 3, Column: 26, Detail: "Exception"}}, run(t, finding.F060, s))
}

func TestDetectorsAreDeterministic(t *testing.T) {
	s := shardFor(t, language.CloudFormation, "stack.yaml", template)
	assert.Equal(t, run(t, finding.F031, s), run(t, finding.F031, s))
}

func TestRunShieldsPanics(t *testing.T) {
	s := shardFor(t, language.HCL, "main.tf", "variable \"x\" {}\n")
	m := Method{
		Name:     "broken",
		Finding:  finding.F024,
		Language: language.HCL,
		Check: func(c *Context) iter.Seq[Hit] {
			return func(yield func(Hit) bool) {
				yield(Hit{Node: c.Shard.Root()})
				var n *graph.Node
				_ = n.Label
			}
		},
	}

	hits, err := Run(context.Background(), m, &Context{Shard: s, Policy: finding.DefaultPolicy()})
	assert.Nil(t, hits)
	var detectorErr *errors.DetectorError
	require.True(t, stderrors.As(err, &detectorErr))
	assert.Equal(t, "broken", detectorErr.Method)
	assert.Equal(t, "main.tf", detectorErr.Path)

	other := Method{Name: "java_only", Finding: finding.F009, Language: language.Java, Check: m.Check}
	hits, err = Run(context.Background(), other, &Context{Shard: s})
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := shardFor(t, language.HCL, "main.tf", "variable \"x\" {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := Method{Name: "forever", Finding: finding.F024, Language: language.HCL, Check: func(c *Context) iter.Seq[Hit] {
		return func(yield func(Hit) bool) {
			for yield(Hit{Node: c.Shard.Root()}) {
			}
		}
	}}
	_, err := Run(ctx, m, &Context{Shard: s})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelect(t *testing.T) {
	assert.Len(t, Select(nil), len(Methods()))
	for _, m := range Select([]finding.ID{finding.F359}) {
		assert.Equal(t, finding.F359, m.Finding)
	}

	covered := map[finding.ID]bool{}
	for _, m := range Methods() {
		covered[m.Finding] = true
		assert.NotNil(t, m.Check, m.Name)
	}
	for _, f := range finding.All() {
		assert.True(t, covered[f.ID], f.ID)
	}
	assert.Contains(t, Languages(Methods()), language.Dockerfile)
}
