package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestContextLoggerWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	root := NewContextLogger(base, logrus.Fields{"service": "altimpact"})
	child := root.WithField("tiid", "abc123")

	child.Info("hello")
	assert.Contains(t, buf.String(), `"tiid":"abc123"`)
	assert.Contains(t, buf.String(), `"service":"altimpact"`)

	buf.Reset()
	root.Info("bare")
	assert.NotContains(t, buf.String(), "tiid")
}

func TestOutputSplitterRoutesByLevel(t *testing.T) {
	// Only verifies Write succeeds and returns the full byte count; actual
	// stream selection isn't independently observable from stdout/stderr
	// in a unit test without redirecting os.Stdout/os.Stderr.
	s := OutputSplitter{}
	n, err := s.Write([]byte("level=info msg=hi\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("level=info msg=hi\n"), n)
}
