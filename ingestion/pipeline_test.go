package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/ai/mock"
	"github.com/poiesic/recembed/ai/openai"
	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink records every emitted embedding.
type collectSink struct {
	embeddings []*core.Embedding
	err        error
}

func (s *collectSink) Emit(ctx context.Context, e *core.Embedding) error {
	if s.err != nil {
		return s.err
	}
	s.embeddings = append(s.embeddings, e)
	return nil
}

func writeInput(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const fourRecordCSV = "content,score\none,1\ntwo,2\nthree,3\nfour,4\n"

func failOnText(target string, err error) func(context.Context, string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		if text == target {
			return nil, err
		}
		return mock.Vector(text), nil
	}
}

func TestNewPipeline_Guards(t *testing.T) {
	_, err := NewPipeline(nil, &collectSink{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrSinkRequired)

	_, err = NewPipeline(mock.NewMockEmbedder(), &collectSink{}, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewPipeline(mock.NewMockEmbedder(), &collectSink{}, WithRetryDelay(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidRetryDelay)

	p, err := NewPipeline(mock.NewMockEmbedder(), &collectSink{})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State())
	assert.Zero(t, p.Processed())
}

func TestRun_CSVEndToEnd(t *testing.T) {
	path := writeInput(t, "input.csv", "content,score\n\"Hello  World\",1\nHi,3\n")
	embedder := mock.NewMockEmbedder()
	sink := &collectSink{}

	p, err := NewPipeline(embedder, sink)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, 2, p.Processed())
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Embedded)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, path, result.Source)

	require.Len(t, sink.embeddings, 2)
	first, second := sink.embeddings[0], sink.embeddings[1]

	assert.Equal(t, "Hello World", first.Text)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, mock.Vector("Hello World"), first.Vector)
	score, _ := first.Record.Get("score")
	assert.Equal(t, 0.0, score)

	assert.Equal(t, "Hi", second.Text)
	assert.Equal(t, 1, second.Index)
	score, _ = second.Record.Get("score")
	assert.Equal(t, 1.0, score)

	// content is never rescaled
	content, _ := first.Record.Get("content")
	assert.Equal(t, "Hello  World", content)

	assert.Equal(t, []string{"Hello World", "Hi"}, embedder.Texts())
	require.Len(t, result.Stats, 1)
	assert.Equal(t, "score", result.Stats[0].Field)
}

func TestRun_JSONEndToEnd(t *testing.T) {
	path := writeInput(t, "input.json", `{"data": [
		{"content": "“Curly” quotes", "rank": 10},
		{"content": "en–dash", "rank": 20}
	]}`)
	sink := &collectSink{}

	p, err := NewPipeline(mock.NewMockEmbedder(), sink)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Embedded)

	require.Len(t, sink.embeddings, 2)
	assert.Equal(t, `"Curly" quotes`, sink.embeddings[0].Text)
	assert.Equal(t, "en-dash", sink.embeddings[1].Text)

	rank, _ := sink.embeddings[1].Record.Get("rank")
	assert.Equal(t, 1.0, rank)
}

func TestRun_EmptyInput(t *testing.T) {
	path := writeInput(t, "input.csv", "content,score\n")
	embedder := mock.NewMockEmbedder()

	p, err := NewPipeline(embedder, &collectSink{})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
	assert.Zero(t, result.Total)
	assert.Zero(t, embedder.CallCount())
}

func TestRun_UnsupportedExtensionBeforeIO(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, err := NewPipeline(embedder, &collectSink{})
	require.NoError(t, err)

	// The file does not exist: reaching the loader would surface an os error.
	_, err = p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
	assert.NotErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, StateFailed, p.State())
	assert.Zero(t, embedder.CallCount())
}

func TestRun_UppercaseExtensionUnsupported(t *testing.T) {
	path := writeInput(t, "input.CSV", "content\nx\n")

	p, err := NewPipeline(mock.NewMockEmbedder(), &collectSink{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
}

func TestRun_JSONMissingDataFieldBeforeAnyRequest(t *testing.T) {
	path := writeInput(t, "input.json", `{"items": [{"content": "x"}]}`)
	embedder := mock.NewMockEmbedder()

	p, err := NewPipeline(embedder, &collectSink{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingField)
	assert.Equal(t, StateFailed, p.State())
	assert.Zero(t, embedder.CallCount())
}

func TestRun_InconsistentNumericField(t *testing.T) {
	path := writeInput(t, "input.csv", "content,score\na,1\nb,high\n")
	embedder := mock.NewMockEmbedder()

	p, err := NewPipeline(embedder, &collectSink{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNormalization)
	assert.Equal(t, StateFailed, p.State())
	assert.Zero(t, embedder.CallCount())
}

func TestRun_FailureOnThirdRecordIsFatal(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	cause := fmt.Errorf("%w: status 500", core.ErrEmbeddingRequest)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(failOnText("three", cause))
	sink := &collectSink{}

	p, err := NewPipeline(embedder, sink)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)

	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, 2, p.Processed())
	assert.Equal(t, []string{"one", "two", "three"}, embedder.Texts())
	assert.Len(t, sink.embeddings, 2)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Embedded)
}

func TestRun_ServerErrorOnThirdRecord(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"object":"list","data":[{"index":0,"embedding":[0.1,0.2]}]}`)
	}))
	defer server.Close()

	embedder, err := openai.NewEmbedder(ai.NewConfig(
		ai.WithEmbeddingHost(server.URL),
		ai.WithEmbeddingModel("test-model"),
		ai.WithAPIKey("sk-test"),
	))
	require.NoError(t, err)

	path := writeInput(t, "input.csv", fourRecordCSV)
	var progress bytes.Buffer
	sink := &collectSink{}

	p, err := NewPipeline(embedder, sink, WithProgress(&progress, 1))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)

	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, 2, p.Processed())
	assert.Equal(t, int32(3), calls.Load(), "record 4 must not be attempted")
	assert.Len(t, sink.embeddings, 2)
	assert.Contains(t, progress.String(), "2/4")
	assert.NotContains(t, progress.String(), "3/4")
}

func TestRun_SkipFailed(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(failOnText("three", core.ErrEmbeddingRequest))
	sink := &collectSink{}

	p, err := NewPipeline(embedder, sink, WithSkipFailed(true))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, 4, p.Processed())
	assert.Equal(t, 3, result.Embedded)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, sink.embeddings, 3)
	assert.Equal(t, 3, sink.embeddings[2].Index)
}

func TestRun_RetryRecovers(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	failures := 0
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		if text == "two" && failures < 2 {
			failures++
			return nil, core.ErrEmbeddingRequest
		}
		return mock.Vector(text), nil
	})
	sink := &collectSink{}

	p, err := NewPipeline(embedder, sink, WithMaxAttempts(3), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Embedded)
	assert.Equal(t, 6, embedder.CallCount())

	for i, e := range sink.embeddings {
		assert.Equal(t, i, e.Index, "emitted in load order")
	}
}

func TestRun_RetryExhausted(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(failOnText("one", core.ErrEmbeddingRequest))

	p, err := NewPipeline(embedder, &collectSink{}, WithMaxAttempts(2), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)
	assert.Equal(t, 2, embedder.CallCount())
	assert.Zero(t, p.Processed())
}

func TestRun_SinkFailureIsFatal(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	boom := errors.New("disk full")
	embedder := mock.NewMockEmbedder()

	p, err := NewPipeline(embedder, &collectSink{err: boom})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, 1, embedder.CallCount())
}

func TestRun_ContextCanceled(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := mock.NewMockEmbedder()
	sink := SinkFunc(func(ctx context.Context, e *core.Embedding) error {
		if e.Index == 1 {
			cancel()
		}
		return nil
	})

	p, err := NewPipeline(embedder, sink, WithSkipFailed(true))
	require.NoError(t, err)

	_, err = p.Run(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, 2, embedder.CallCount())
}

func TestRun_CustomFields(t *testing.T) {
	path := writeInput(t, "input.json", `{"rows": [{"body": "a", "n": 1}, {"body": "b", "n": 3}]}`)
	sink := &collectSink{}

	p, err := NewPipeline(mock.NewMockEmbedder(), sink,
		WithSourceOptions(source.Options{DataField: "rows"}),
		WithContentField("body"),
	)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Embedded)
	assert.Equal(t, "b", sink.embeddings[1].Text)
}

func TestRun_ProgressOutput(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)
	var progress bytes.Buffer

	p, err := NewPipeline(mock.NewMockEmbedder(), &collectSink{}, WithProgress(&progress, 1))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.NoError(t, err)

	out := progress.String()
	for i := 1; i <= 4; i++ {
		assert.Contains(t, out, fmt.Sprintf("%d/4", i))
	}
}

func TestRun_Rerun(t *testing.T) {
	path := writeInput(t, "input.csv", fourRecordCSV)

	p, err := NewPipeline(mock.NewMockEmbedder(), &collectSink{})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), path)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Processed(), "counter resets per run")
}
