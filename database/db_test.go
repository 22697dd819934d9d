package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestRetryable_SurfacesWrappedWriteConflict(t *testing.T) {
	conflict := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{transientTxnLabel}}
	wrapped := fmt.Errorf("insert slot claims failed: %w", conflict)

	err := retryable(wrapped)
	var labeled mongo.LabeledError
	assert.True(t, errors.As(err, &labeled))
	assert.True(t, labeled.HasErrorLabel(transientTxnLabel))
	assert.Equal(t, conflict, err)
}

func TestRetryable_KeepsTerminalErrors(t *testing.T) {
	slotTaken := errors.New("time slot already claimed")
	assert.Same(t, slotTaken, retryable(slotTaken))

	dup := fmt.Errorf("insert failed: %w", mongo.CommandError{Code: 11000, Name: "DuplicateKey"})
	assert.Equal(t, dup, retryable(dup))

	assert.NoError(t, retryable(nil))
}
