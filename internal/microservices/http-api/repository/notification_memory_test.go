package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestMemoryNotificationRepository(t *testing.T) {
	suite.Run(t, &notificationStoreSuite{newRepo: NewMemoryNotificationRepository})
}

func TestMemoryNotificationRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.List(ctx, NotificationFilter{VendorID: "V1", Page: 1, Limit: 10})

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticVendorDirectory(t *testing.T) {
	dir := StaticVendorDirectory{"V1": {Email: "v1@farm.example", DisplayName: "Green Acres"}}

	contact, err := dir.Lookup(context.Background(), "V1")
	assert.NoError(t, err)
	assert.Equal(t, "V1", contact.VendorID)
	assert.Equal(t, "v1@farm.example", contact.Email)

	_, err = dir.Lookup(context.Background(), "V404")
	assert.ErrorIs(t, err, ErrVendorNotFound)
}
