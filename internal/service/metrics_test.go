package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestOrdersPlacedCounter(t *testing.T) {
	f := newOrderFixture()
	f.repo.On("Place", mock.Anything, mock.Anything).Return(nil).Once()
	f.repo.On("Place", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	f.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	before := counterValue(t, ordersPlaced)

	_, err := f.svc.PlaceOrder(context.Background(), validPlaceOrderInput())
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(context.Background(), validPlaceOrderInput())
	require.Error(t, err)

	assert.Equal(t, before+1, counterValue(t, ordersPlaced))
}

func TestRefundsCounter(t *testing.T) {
	f := newOrderFixture()
	f.repo.On("AddRefund", mock.Anything, "o-1", mock.Anything, fixedNow).Return(dec("5"), nil)
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	before := counterValue(t, refundsRecorded)

	_, err := f.svc.Refund(context.Background(), "o-1", dec("5"))
	require.NoError(t, err)
	_, err = f.svc.Refund(context.Background(), "o-1", dec("0"))
	require.Error(t, err)

	assert.Equal(t, before+1, counterValue(t, refundsRecorded))
}
