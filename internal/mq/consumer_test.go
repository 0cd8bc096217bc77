package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumer_InvokeRecoversPanic(t *testing.T) {
	c := &Consumer{handler: func(context.Context, *Delivery) error {
		panic("boom")
	}}

	err := c.invoke(context.Background(), &Delivery{})
	assert.ErrorIs(t, err, ErrReject)
	assert.Contains(t, err.Error(), "boom")
}

func TestConsumer_InvokePassesError(t *testing.T) {
	transient := errors.New("db down")
	c := &Consumer{handler: func(context.Context, *Delivery) error {
		return transient
	}}

	err := c.invoke(context.Background(), &Delivery{})
	assert.ErrorIs(t, err, transient)
	assert.NotErrorIs(t, err, ErrReject)
}
