package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
)

type fakeChannel struct {
	name    enums.NotificationChannel
	canSend bool
	err     error
	panics  bool
	calls   int
}

func (f *fakeChannel) Name() enums.NotificationChannel { return f.name }

func (f *fakeChannel) CanSend(order *models.Order) bool { return f.canSend }

func (f *fakeChannel) Send(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	f.calls++
	if f.panics {
		panic("gateway client blew up")
	}
	return f.err
}

func testOrder() *models.Order {
	email := "ada@example.com"
	return &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Ada Smith",
		CustomerEmail: &email,
		Language:      "en",
		Status:        enums.OrderStatusShipped,
	}
}

func TestDispatch_FailureNeverBlocksOtherChannels(t *testing.T) {
	t.Parallel()

	failing := &fakeChannel{name: enums.NotificationChannelEmail, canSend: true, err: errors.New("smtp down")}
	healthy := &fakeChannel{name: enums.NotificationChannelSMS, canSend: true}
	d := NewDispatcher([]Channel{failing, healthy}, config.NotificationsConfig{}, nil, nil)

	outcomes := d.Dispatch(context.Background(), testOrder(), enums.OrderStatusShipped)
	require.Len(t, outcomes, 2)

	assert.False(t, outcomes[0].Sent)
	assert.Equal(t, "smtp down", outcomes[0].Error)
	assert.True(t, outcomes[1].Sent)
	assert.Equal(t, 1, healthy.calls)
}

func TestDispatch_PanickingChannelIsContained(t *testing.T) {
	t.Parallel()

	angry := &fakeChannel{name: enums.NotificationChannelWhatsApp, canSend: true, panics: true}
	calm := &fakeChannel{name: enums.NotificationChannelEmail, canSend: true}
	d := NewDispatcher([]Channel{angry, calm}, config.NotificationsConfig{}, nil, nil)

	outcomes := d.Dispatch(context.Background(), testOrder(), enums.OrderStatusShipped)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Sent)
	assert.Contains(t, outcomes[0].Error, "panicked")
	assert.True(t, outcomes[1].Sent)
}

func TestDispatch_MissingContactSkipsSilently(t *testing.T) {
	t.Parallel()

	noPhone := &fakeChannel{name: enums.NotificationChannelSMS, canSend: false}
	d := NewDispatcher([]Channel{noPhone}, config.NotificationsConfig{}, nil, nil)

	outcomes := d.Dispatch(context.Background(), testOrder(), enums.OrderStatusConfirmed)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Skipped)
	assert.Empty(t, outcomes[0].Error)
	assert.Zero(t, noPhone.calls)
}

func TestChannelCanSend_ChecksContactDetail(t *testing.T) {
	t.Parallel()

	cfg := config.NotificationsConfig{}
	email := NewEmailChannel(cfg)
	sms := NewSMSChannel(cfg)

	order := testOrder()
	assert.True(t, email.CanSend(order))
	assert.False(t, sms.CanSend(order), "no phone on the order")

	phone := "+15550100"
	order.CustomerPhone = &phone
	order.CustomerEmail = nil
	assert.False(t, email.CanSend(order))
	assert.True(t, sms.CanSend(order))
}
