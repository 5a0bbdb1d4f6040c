package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr bool
	}{
		{
			uri:  "s3://datalake-medusadistribution/datalake/to_redshift/ramp/ramp_bills.parquet",
			want: Location{Scheme: "s3", Bucket: "datalake-medusadistribution", Key: "datalake/to_redshift/ramp/ramp_bills.parquet"},
		},
		{
			uri:  "gs://finance-bucket/ramp/ramp_bills.parquet",
			want: Location{Scheme: "gs", Bucket: "finance-bucket", Key: "ramp/ramp_bills.parquet"},
		},
		{
			uri:  "file:///tmp/ramp_bills.parquet",
			want: Location{Scheme: "file", Key: "/tmp/ramp_bills.parquet"},
		},
		{
			uri:  "out/ramp_bills.parquet",
			want: Location{Scheme: "file", Key: "out/ramp_bills.parquet"},
		},
		{uri: "", wantErr: true},
		{uri: "s3://bucket-only", wantErr: true},
		{uri: "ftp://host/file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseURI(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
		})
	}
}

func TestLocation_Filename(t *testing.T) {
	loc, _ := ParseURI("s3://bucket/ramp/ramp_bills.parquet")
	if loc.Filename() != "ramp_bills.parquet" {
		t.Errorf("Filename = %q", loc.Filename())
	}
	if loc.String() != "s3://bucket/ramp/ramp_bills.parquet" {
		t.Errorf("String = %q", loc.String())
	}
}

type recordingBackend struct {
	loc  Location
	body []byte
	err  error
}

func (r *recordingBackend) Put(_ context.Context, loc Location, body io.Reader) error {
	r.loc = loc
	r.body, _ = io.ReadAll(body)
	return r.err
}

func TestRouter_Publish(t *testing.T) {
	fake := &recordingBackend{}
	r := &Router{}
	r.Register(SchemeS3, fake)

	if err := r.Publish(context.Background(), "s3://b/k.parquet", bytes.NewReader([]byte("PAR1"))); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if fake.loc.Bucket != "b" || fake.loc.Key != "k.parquet" || string(fake.body) != "PAR1" {
		t.Errorf("backend saw %+v %q", fake.loc, fake.body)
	}

	if err := r.Publish(context.Background(), "gs://b/k.parquet", bytes.NewReader(nil)); err == nil {
		t.Error("expected error for scheme without backend")
	}

	fake.err = errors.New("access denied")
	if err := r.Publish(context.Background(), "s3://b/k.parquet", bytes.NewReader(nil)); !errors.Is(err, fake.err) {
		t.Errorf("expected backend error to be wrapped, got %v", err)
	}
}

func TestFileBackend_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp", "ramp_bills.parquet")
	r := NewRouter()

	if err := r.Publish(context.Background(), "file://"+path, bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := r.Publish(context.Background(), path, bytes.NewReader([]byte("second"))); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want overwritten content", got)
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Backend_Put(t *testing.T) {
	fake := &fakeS3{}
	backend := &S3Backend{Client: fake}
	loc := Location{Scheme: SchemeS3, Bucket: "datalake", Key: "ramp/ramp_bills.parquet"}

	if err := backend.Put(context.Background(), loc, bytes.NewReader([]byte("PAR1"))); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if aws.ToString(fake.input.Bucket) != "datalake" || aws.ToString(fake.input.Key) != "ramp/ramp_bills.parquet" {
		t.Errorf("unexpected target %s/%s", aws.ToString(fake.input.Bucket), aws.ToString(fake.input.Key))
	}
	if aws.ToString(fake.input.ContentType) != "application/vnd.apache.parquet" {
		t.Errorf("ContentType = %s", aws.ToString(fake.input.ContentType))
	}
	if string(fake.body) != "PAR1" {
		t.Errorf("body = %q", fake.body)
	}
}

type fakeGCSWriter struct {
	buf      bytes.Buffer
	closeErr error
	closed   bool
}

func (w *fakeGCSWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *fakeGCSWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type fakeGCS struct {
	bucket, key, contentType string
	writer                   *fakeGCSWriter
	closed                   bool
}

func (f *fakeGCS) NewWriter(_ context.Context, bucket, key, contentType string) io.WriteCloser {
	f.bucket, f.key, f.contentType = bucket, key, contentType
	return f.writer
}

func (f *fakeGCS) Close() error {
	f.closed = true
	return nil
}

func gcsBackendWith(fake *fakeGCS, clientErr error) *GCSBackend {
	b := NewGCSBackend(option.WithoutAuthentication())
	b.NewClient = func(_ context.Context, opts ...option.ClientOption) (GCSClient, error) {
		if len(opts) != 1 {
			return nil, errors.New("client options not passed through")
		}
		if clientErr != nil {
			return nil, clientErr
		}
		return fake, nil
	}
	return b
}

func TestGCSBackend_Put(t *testing.T) {
	fake := &fakeGCS{writer: &fakeGCSWriter{}}
	loc := Location{Scheme: SchemeGCS, Bucket: "finance", Key: "ramp/ramp_bills.parquet"}

	if err := gcsBackendWith(fake, nil).Put(context.Background(), loc, bytes.NewReader([]byte("PAR1"))); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if fake.bucket != "finance" || fake.key != "ramp/ramp_bills.parquet" {
		t.Errorf("unexpected target %s/%s", fake.bucket, fake.key)
	}
	if fake.contentType != "application/vnd.apache.parquet" {
		t.Errorf("ContentType = %s", fake.contentType)
	}
	if fake.writer.buf.String() != "PAR1" || !fake.writer.closed {
		t.Errorf("body = %q, writer closed = %v", fake.writer.buf.String(), fake.writer.closed)
	}
	if !fake.closed {
		t.Error("storage client was not closed")
	}
}

func TestGCSBackend_PutErrors(t *testing.T) {
	loc := Location{Scheme: SchemeGCS, Bucket: "finance", Key: "k.parquet"}

	t.Run("client", func(t *testing.T) {
		clientErr := errors.New("no credentials")
		err := gcsBackendWith(&fakeGCS{}, clientErr).Put(context.Background(), loc, bytes.NewReader(nil))
		if !errors.Is(err, clientErr) {
			t.Errorf("expected client error, got %v", err)
		}
	})

	t.Run("finalize", func(t *testing.T) {
		closeErr := errors.New("precondition failed")
		fake := &fakeGCS{writer: &fakeGCSWriter{closeErr: closeErr}}
		err := gcsBackendWith(fake, nil).Put(context.Background(), loc, bytes.NewReader([]byte("x")))
		if !errors.Is(err, closeErr) {
			t.Errorf("expected finalize error, got %v", err)
		}
		if !fake.closed {
			t.Error("storage client was not closed after a failed upload")
		}
	})
}
