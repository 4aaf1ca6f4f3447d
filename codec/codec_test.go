package codec_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	"github.com/reoring/zschema/codec"
	g "github.com/reoring/zschema/dsl"
)

func TestTimeRFC3339(t *testing.T) {
	ctx := context.Background()
	s := codec.TimeRFC3339()

	v, err := s.Parse(ctx, "2024-02-29T10:20:30.5+09:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 1, 20, 30, 5e8, time.UTC), v.UTC())

	_, err = s.Parse(ctx, "2024-02-30")
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{zschema.CodeCustom}, iss.Codes())
	assert.Contains(t, iss[0].Message, "invalid time")

	_, err = s.Parse(ctx, 17)
	iss, _ = zschema.AsIssues(err)
	assert.Equal(t, []string{zschema.CodeInvalidType}, iss.Codes())
}

func TestDateAndDuration(t *testing.T) {
	ctx := context.Background()
	d, err := codec.Date().Parse(ctx, "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())

	dur, err := codec.Duration().Parse(ctx, "1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, dur)

	_, err = codec.Duration().Parse(ctx, "soon")
	assert.Error(t, err)
}

func TestUUIDAndInt(t *testing.T) {
	ctx := context.Background()
	id, err := codec.UUID().Parse(ctx, "123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"), id)

	_, err = codec.UUID().Parse(ctx, "nope")
	iss, _ := zschema.AsIssues(err)
	assert.Equal(t, []string{zschema.CodeInvalidStringFormat}, iss.Codes())

	n, err := codec.Int().Parse(ctx, "-42")
	require.NoError(t, err)
	assert.Equal(t, int64(-42), n)

	_, err = codec.Int().Parse(ctx, "4.2")
	assert.Error(t, err)
}

type event struct {
	At    time.Time     `json:"at"`
	Every time.Duration `json:"every"`
	Owner *uuid.UUID    `json:"owner"`
}

func TestCodecsBindIntoStructs(t *testing.T) {
	s, err := g.Bind[event](g.Object(
		g.Field("at", codec.TimeRFC3339()),
		g.Field("every", codec.Duration()),
		g.Field("owner", g.Optional(codec.UUID())),
	))
	require.NoError(t, err)

	v, err := s.Parse(context.Background(), map[string]any{"at": "2024-01-02T03:04:05Z", "every": "15m"})
	require.NoError(t, err)
	assert.Equal(t, 2024, v.At.Year())
	assert.Equal(t, 15*time.Minute, v.Every)
	assert.Nil(t, v.Owner)
}
