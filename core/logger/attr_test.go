package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/postalsys/certs/core/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("nil error yields empty attr", func(t *testing.T) {
		attr := logger.Error(nil)
		assert.Equal(t, slog.Attr{}, attr)
	})

	t.Run("error is attached under error key", func(t *testing.T) {
		err := errors.New("boom")
		attr := logger.Error(err)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, "boom", attr.Value.String())
	})
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "domain", logger.Domain("example.com").Key)
	assert.Equal(t, "example.com", logger.Domain("example.com").Value.String())

	assert.Equal(t, "code", logger.Code("caa_mismatch").Key)
	assert.Equal(t, "environment", logger.Environment("production").Key)

	now := time.Now()
	assert.Equal(t, "validTo", logger.Expiry(now).Key)
	assert.Equal(t, "certVersion", logger.Version(3).Key)
	assert.EqualValues(t, 3, logger.Version(3).Value.Int64())
}
