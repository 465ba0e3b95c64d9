package envconfig

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVar(t *testing.T) {
	t.Setenv("DECODER_TEST_VAR", `  "quoted"  `)
	assert.Equal(t, "quoted", Var("DECODER_TEST_VAR"))
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"2":     slog.Level(-8),
	}

	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("DECODER_DEBUG", value)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestNumWorkers(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("DECODER_NUM_WORKERS", "")
		assert.Equal(t, runtime.GOMAXPROCS(0), NumWorkers())
	})

	t.Run("explicit", func(t *testing.T) {
		t.Setenv("DECODER_NUM_WORKERS", "3")
		assert.Equal(t, 3, NumWorkers())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("DECODER_NUM_WORKERS", "many")
		assert.Equal(t, runtime.GOMAXPROCS(0), NumWorkers())
	})
}

func TestAsMap(t *testing.T) {
	t.Setenv("DECODER_NUM_WORKERS", "5")
	m := AsMap()
	assert.Equal(t, 5, m["DECODER_NUM_WORKERS"].Value)
	assert.Contains(t, m, "DECODER_DEBUG")
}
