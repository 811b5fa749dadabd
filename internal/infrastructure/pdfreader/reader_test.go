package pdfreader

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestReader_EmptyDocument(t *testing.T) {
	logger, _ := test.NewNullLogger()
	reader := NewReader(Config{Validate: true}, logger)

	doc, err := reader.Read(context.Background(), "wo.pdf", nil)

	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.Contains(t, err.Error(), "wo.pdf")
}

func TestReader_NotAPDF(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for _, validate := range []bool{true, false} {
		reader := NewReader(Config{Validate: validate}, logger)

		doc, err := reader.Read(context.Background(), "po.pdf", []byte("this is not a pdf"))

		assert.Error(t, err)
		assert.Nil(t, doc)
	}
}

func TestNewReader_DefaultLogger(t *testing.T) {
	reader := NewReader(Config{}, nil)

	assert.Equal(t, logrus.StandardLogger(), reader.logger)
}
