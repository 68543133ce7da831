package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/types"
)

func TestDocument_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		data, err := EncodeDocument(DocumentOf(MustDefault()), compress)
		require.NoError(t, err)
		assert.Equal(t, compress, bytes.HasPrefix(data, zstdMagic))

		doc, err := DecodeDocument(data)
		require.NoError(t, err)
		c, err := doc.Build(nil)
		require.NoError(t, err)

		assert.Equal(t, BuiltinVersion, c.Version())
		want := MustDefault().Plans()
		got := c.Plans()
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Tier, got[i].Tier)
			assert.True(t, want[i].AnnualPrice.Equal(got[i].AnnualPrice))
			assert.Equal(t, want[i].MaxProperties, got[i].MaxProperties)
		}
		assert.Len(t, c.AddOns(), 9)
		assert.Len(t, c.Deviations(), 1)
	}
}

func TestDecodeDocument_RejectsUnknownFields(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"version":"v1","plans":[],"surprise":true}`))
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	c, err := StaticSource{}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BuiltinVersion, c.Version())
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json.zst")

	doc := DocumentOf(MustDefault())
	doc.Version = "file-v2"
	data, err := EncodeDocument(doc, true)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-v2", c.Version())
}

func TestFileSource_Missing(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}.Load(context.Background())
	assert.Error(t, err)
}

func TestFileSource_InvalidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"bad","plans":[]}`), 0o600))

	_, err := FileSource{Path: path}.Load(context.Background())
	assert.True(t, types.IsCode(err, types.ErrCodeCatalogIntegrity))
}

func TestStore_Swap(t *testing.T) {
	first := MustDefault()
	s := NewStore(first)
	assert.Same(t, first, s.Current())

	second := MustDefault()
	prev := s.Swap(second)
	assert.Same(t, first, prev)
	assert.Same(t, second, s.Current())
}

func TestStore_HealthCheck(t *testing.T) {
	s := NewStore(MustDefault())
	assert.Equal(t, "catalog", s.Name())
	assert.NoError(t, s.Check(context.Background()))

	assert.Error(t, (&Store{}).Check(context.Background()))
}

// --- Reloader ---

type fakeSource struct {
	catalog *Catalog
	err     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) (*Catalog, error) {
	return f.catalog, f.err
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []bool
}

func (r *fakeRecorder) RecordCatalogReload(ctx context.Context, source string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, success)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReloader_SwapsOnSuccess(t *testing.T) {
	store := NewStore(MustDefault())
	next, err := NewBuilder("v2").AddPlan(testPlan(types.TierStarter, 40, 400)).Build()
	require.NoError(t, err)

	rec := &fakeRecorder{}
	r := NewReloader(&fakeSource{catalog: next}, store, 0, rec, discardLogger())
	require.NoError(t, r.ReloadOnce(context.Background()))

	assert.Equal(t, "v2", store.Current().Version())
	assert.Equal(t, []bool{true}, rec.results)
}

func TestReloader_KeepsSnapshotOnFailure(t *testing.T) {
	current := MustDefault()
	store := NewStore(current)

	rec := &fakeRecorder{}
	r := NewReloader(&fakeSource{err: errors.New("boom")}, store, 0, rec, discardLogger())
	assert.Error(t, r.ReloadOnce(context.Background()))

	assert.Same(t, current, store.Current())
	assert.Equal(t, []bool{false}, rec.results)
}

func TestReloader_RunWithoutIntervalReturns(t *testing.T) {
	r := NewReloader(&fakeSource{}, NewStore(MustDefault()), 0, nil, nil)
	r.Run(context.Background())
}

// --- S3 ---

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = body
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, nil
}

func TestS3_ExportThenLoad(t *testing.T) {
	client := &fakeS3{}
	exp := NewS3Exporter(client, "catalogs", "pricing/catalog.json.zst", true)
	require.NoError(t, exp.Export(context.Background(), MustDefault()))

	require.Len(t, client.puts, 1)
	assert.Equal(t, "zstd", aws.ToString(client.puts[0].ContentEncoding))
	assert.Equal(t, BuiltinVersion, client.puts[0].Metadata["catalog-version"])

	src := NewS3Source(client, "catalogs", "pricing/catalog.json.zst", nil)
	assert.Equal(t, "s3://catalogs/pricing/catalog.json.zst", src.Name())

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	starter, err := c.Plan(types.TierStarter)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(35).Equal(starter.MonthlyPrice))
}

func TestS3Source_FetchErrorIsUpstream(t *testing.T) {
	src := NewS3Source(&fakeS3{getErr: errors.New("timeout")}, "b", "k", nil)
	_, err := src.Load(context.Background())
	assert.True(t, types.IsCode(err, types.ErrCodeUpstreamStorage))
}

func TestS3Source_BreakerOpens(t *testing.T) {
	client := &fakeS3{getErr: errors.New("timeout")}
	src := NewS3Source(client, "b", "k", NewS3Breaker("test"))

	// ReadyToTrip fires after more than three consecutive failures.
	for range 4 {
		_, _ = src.Load(context.Background())
	}

	client.getErr = nil
	_, err := src.Load(context.Background())
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "catalog storage circuit open", appErr.Message)
}
