// Package seed bulk-loads element records from a JSON array stored in a
// local file or an S3 object.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jacentio/periodic/schema"
)

// ErrNoObjectStore is returned for s3:// sources when the Loader has no
// S3 client.
var ErrNoObjectStore = errors.New("seed: no S3 client configured")

// ObjectGetter is the subset of the S3 client used by Loader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Creator stores one element. *elements.Service implements it.
type Creator interface {
	Create(ctx context.Context, in schema.Input) (string, error)
}

// Report summarizes a load.
type Report struct {
	Created int
	Failed  int
}

// Loader reads seed files.
type Loader struct {
	objects ObjectGetter
	logger  *slog.Logger
}

// NewLoader creates a Loader. objects may be nil when only local files are
// loaded. A nil logger uses slog.Default().
func NewLoader(objects ObjectGetter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{objects: objects, logger: logger}
}

// Load reads the records at source, a path or an s3://bucket/key URL, and
// creates each through c. Records failing validation are logged and
// counted; any other error stops the load.
func (l *Loader) Load(ctx context.Context, c Creator, source string) (Report, error) {
	r, err := l.open(ctx, source)
	if err != nil {
		return Report{}, err
	}
	defer r.Close()

	inputs, err := schema.DecodeInputs(r)
	if err != nil {
		return Report{}, fmt.Errorf("seed: %s: %w", source, err)
	}

	var rep Report
	for i, in := range inputs {
		id, err := c.Create(ctx, in)
		if errors.Is(err, schema.ErrInvalid) {
			l.logger.WarnContext(ctx, "skipping invalid record", "source", source, "index", i, "error", err)
			rep.Failed++
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("seed: record %d: %w", i, err)
		}
		l.logger.DebugContext(ctx, "record created", "index", i, "elementID", id)
		rep.Created++
	}
	l.logger.InfoContext(ctx, "seed complete", "source", source, "created", rep.Created, "failed", rep.Failed)
	return rep, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	bucket, key, ok := parseS3URL(source)
	if !ok {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		return f, nil
	}
	if l.objects == nil {
		return nil, ErrNoObjectStore
	}
	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("seed: get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// parseS3URL splits s3://bucket/key. Both parts must be non-empty.
func parseS3URL(source string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(source, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
