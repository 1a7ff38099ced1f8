package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/config"
	"github.com/mohitbudhwar0786/earning-website/settlement"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func sampleResult() settlement.Result {
	return settlement.Result{
		RunID:           "3f2a",
		Date:            "2026-03-14",
		Processed:       2,
		InvestmentTotal: decimal.NewFromInt(100),
		ReferralTotal:   decimal.NewFromInt(60),
		StartedAt:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestUploadWritesDocument(t *testing.T) {
	p := &fakePutter{}
	a := NewS3Archive(p, "reports", "settlements", nil)

	key, err := a.Upload(context.Background(), sampleResult(), nil)
	require.NoError(t, err)
	assert.Equal(t, "settlements/2026/03/14/3f2a.json", key)
	require.Len(t, p.inputs, 1)
	assert.Equal(t, "reports", aws.ToString(p.inputs[0].Bucket))
	assert.Equal(t, "application/json", aws.ToString(p.inputs[0].ContentType))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(p.bodies[0], &doc))
	assert.Equal(t, "3f2a", doc["run_id"])
	assert.Equal(t, float64(2), doc["processed"])
	assert.Equal(t, false, doc["aborted"])
	assert.NotContains(t, doc, "error")
}

func TestRunFinishedRecordsAbortEvenWhenContextCancelled(t *testing.T) {
	p := &fakePutter{}
	a := NewS3Archive(p, "reports", "settlements", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a.RunFinished(ctx, sampleResult(), settlement.ErrRunAborted)
	require.Len(t, p.bodies, 1)
	var doc Document
	require.NoError(t, json.Unmarshal(p.bodies[0], &doc))
	assert.True(t, doc.Aborted)
	assert.Contains(t, doc.Error, "aborted")
}

func TestRunFinishedSwallowsUploadErrors(t *testing.T) {
	a := NewS3Archive(&fakePutter{err: errors.New("denied")}, "reports", "settlements", nil)
	assert.NotPanics(t, func() { a.RunFinished(context.Background(), sampleResult(), nil) })

	_, err := a.Upload(context.Background(), sampleResult(), nil)
	assert.ErrorContains(t, err, "denied")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), config.S3{Bucket: "b"})
	assert.Error(t, err)

	c, err := NewClient(context.Background(), config.S3{Bucket: "b", AccessKey: "k", SecretKey: "s", Region: "auto", Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
