package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/git"
	"github.com/scan-io-git/skims/internal/vulnerability"
)

func vulns(n int) []vulnerability.Vulnerability {
	out := make([]vulnerability.Vulnerability, n)
	for i := range out {
		out[i] = vulnerability.Vulnerability{
			Finding: finding.F024,
			Path:    "infra/main.tf",
			Line:    i + 1,
			Column:  4,
			CWE:     []string{"CWE-284"},
		}
	}
	return out
}

func testHTTPConfig() config.RestyHTTPClientConfig {
	cfg := config.RestyConfig(nil)
	cfg.RetryCount = 0
	return cfg
}

type recorder struct {
	mu      sync.Mutex
	batches []Batch
	auth    []string
	failAt  int
}

func (rc *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var b Batch
	if err := json.Unmarshal(body, &b); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.batches = append(rc.batches, b)
	rc.auth = append(rc.auth, r.Header.Get("Authorization"))
	if b.Index == rc.failAt {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func TestSplit(t *testing.T) {
	assert.Len(t, Split(nil, 10), 1)
	assert.Empty(t, Split(nil, 10)[0])

	chunks := Split(vulns(5), 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 1)

	assert.Len(t, Split(vulns(5), 0), 1)
}

func TestHTTPUpload(t *testing.T) {
	rec := &recorder{failAt: -1}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, "secret", testHTTPConfig(), hclog.NewNullLogger())
	meta := &git.Metadata{Repository: "acme/infra", Commit: "abc"}
	report := Upload(context.Background(), sink, "run-1", meta, vulns(5), 2, hclog.NewNullLogger())

	require.NoError(t, report.Err())
	assert.Equal(t, "http", report.Sink)
	assert.Zero(t, report.Failed())
	require.Len(t, report.Batches, 3)

	require.Len(t, rec.batches, 3)
	for i, b := range rec.batches {
		assert.Equal(t, "run-1", b.RunID)
		assert.Equal(t, i, b.Index)
		assert.Equal(t, 3, b.Total)
		require.NotNil(t, b.Repository)
		assert.Equal(t, "acme/infra", b.Repository.Repository)
		assert.Equal(t, "Token secret", rec.auth[i])
	}
	assert.Equal(t, 5, rec.batches[2].Vulnerabilities[0].Line)
}

func TestHTTPUploadReportsFailedBatches(t *testing.T) {
	rec := &recorder{failAt: 1}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, "", testHTTPConfig(), hclog.NewNullLogger())
	report := Upload(context.Background(), sink, "run-2", nil, vulns(3), 1, hclog.NewNullLogger())

	assert.Equal(t, 1, report.Failed())
	assert.Len(t, rec.batches, 3)
	assert.Equal(t, StatusOK, report.Batches[0].Status)
	assert.Equal(t, StatusFailed, report.Batches[1].Status)
	assert.Contains(t, report.Batches[1].Message, "500")
	assert.Equal(t, StatusOK, report.Batches[2].Status)
	assert.Error(t, report.Err())
	assert.Empty(t, rec.auth[0])
}

func TestUploadStopsOnCancelledContext(t *testing.T) {
	rec := &recorder{failAt: -1}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := NewHTTPSink(srv.URL, "", testHTTPConfig(), hclog.NewNullLogger())
	report := Upload(ctx, sink, "run-3", nil, vulns(4), 2, hclog.NewNullLogger())
	assert.Equal(t, 2, report.Failed())
	assert.Empty(t, rec.batches)
	assert.ErrorIs(t, report.Err(), context.Canceled)
}

type fakeUploader struct {
	inputs []*s3manager.UploadInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3manager.UploadOutput{Location: "s3://" + aws.StringValue(in.Bucket) + "/" + aws.StringValue(in.Key)}, nil
}

func TestS3Upload(t *testing.T) {
	up := &fakeUploader{}
	sink := newS3Sink(up, "results", "skims/", hclog.NewNullLogger())

	report := Upload(context.Background(), sink, "run-4", nil, vulns(3), 2, hclog.NewNullLogger())
	require.NoError(t, report.Err())
	require.Len(t, up.inputs, 2)

	assert.Equal(t, "results", aws.StringValue(up.inputs[0].Bucket))
	assert.Equal(t, "skims/run-4/batch-0000.json", aws.StringValue(up.inputs[0].Key))
	assert.Equal(t, "skims/run-4/batch-0001.json", aws.StringValue(up.inputs[1].Key))

	var b Batch
	require.NoError(t, json.Unmarshal(up.bodies[1], &b))
	assert.Len(t, b.Vulnerabilities, 1)
	assert.Equal(t, 2, b.Total)
}

func TestS3UploadFailure(t *testing.T) {
	sink := newS3Sink(&fakeUploader{err: errors.New("access denied")}, "results", "", hclog.NewNullLogger())
	report := Upload(context.Background(), sink, "run-5", nil, nil, 10, hclog.NewNullLogger())
	assert.Equal(t, 1, report.Failed())
	assert.Contains(t, report.Batches[0].Message, "access denied")
	assert.Contains(t, report.Batches[0].Message, "run-5/batch-0000.json")
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	_, err := New("", cfg, hclog.NewNullLogger())
	assert.Error(t, err)

	sink, err := New("https://collector.example.com/api/v1/batches", cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, "http", sink.Name())

	sink, err = New("s3://results/skims", cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	require.Equal(t, "s3", sink.Name())
	s3sink := sink.(*S3Sink)
	assert.Equal(t, "results", s3sink.bucket)
	assert.Equal(t, "skims", s3sink.prefix)

	cfg.S3.Bucket = "fallback"
	sink, err = New("", cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, "fallback", sink.(*S3Sink).bucket)

	cfg.Upload.Endpoint = "http://localhost:8080/batches"
	sink, err = New("", cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, "http", sink.Name())

	_, err = New("ftp://host/path", cfg, hclog.NewNullLogger())
	assert.Error(t, err)
	_, err = New("s3:///nobucket", cfg, hclog.NewNullLogger())
	assert.Error(t, err)
}
