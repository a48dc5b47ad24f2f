package source

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/recembed/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV_Load(t *testing.T) {
	path := writeFile(t, "input.csv", "content,score\n\"Hello  World\",1\nHi,3\n")

	records, err := NewCSV(DefaultOptions()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"content", "score"}, records[0].Fields())

	v, _ := records[0].Get("content")
	assert.Equal(t, "Hello  World", v)
	v, _ = records[0].Get("score")
	assert.Equal(t, "1", v)
	v, _ = records[1].Get("content")
	assert.Equal(t, "Hi", v)
	v, _ = records[1].Get("score")
	assert.Equal(t, "3", v)
}

func TestCSV_Read(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    Options
		want    int
		wantErr error
	}{
		{
			name:  "header only",
			input: "content,score\n",
			want:  0,
		},
		{
			name:  "byte order mark stripped",
			input: "\ufeffcontent,score\nhello,1\n",
			want:  1,
		},
		{
			name:  "quoted fields with commas and newlines",
			input: "id,content\n1,\"a, b\nc\"\n",
			want:  1,
		},
		{
			name:  "custom delimiter",
			input: "content;score\nhello;1\nworld;2\n",
			opts:  Options{Comma: ';'},
			want:  2,
		},
		{
			name:  "custom content field",
			input: "body\nhello\n",
			opts:  Options{ContentField: "body"},
			want:  1,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: core.ErrMalformedInput,
		},
		{
			name:    "missing content column",
			input:   "title,score\nhello,1\n",
			wantErr: core.ErrMissingField,
		},
		{
			name:    "ragged row",
			input:   "content,score\nhello,1,extra\n",
			wantErr: core.ErrMalformedInput,
		},
		{
			name:    "bare quote",
			input:   "content,score\nhe\"llo,1\n",
			wantErr: core.ErrMalformedInput,
		},
		{
			name:    "duplicate column",
			input:   "content,content\na,b\n",
			wantErr: core.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewCSV(tt.opts).Read(context.Background(), strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestCSV_ByteOrderMarkHeaderName(t *testing.T) {
	records, err := NewCSV(DefaultOptions()).Read(context.Background(), strings.NewReader("\ufeffcontent\nx\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Has("content"))
}

func TestCSV_RowsDoNotShareStorage(t *testing.T) {
	records, err := NewCSV(DefaultOptions()).Read(context.Background(), strings.NewReader("content\nfirst\nsecond\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	v, _ := records[0].Get("content")
	assert.Equal(t, "first", v)
}

func TestCSV_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSV(DefaultOptions()).Read(ctx, strings.NewReader("content\na\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSV_LoadMissingFile(t *testing.T) {
	_, err := NewCSV(DefaultOptions()).Load(context.Background(), "/nonexistent/input.csv")
	require.Error(t, err)
}
