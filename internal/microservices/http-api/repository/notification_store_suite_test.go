package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/stretchr/testify/suite"
)

// notificationStoreSuite runs the same behavioural checks against every
// NotificationRepository implementation
type notificationStoreSuite struct {
	suite.Suite
	newRepo func() NotificationRepository
	repo    NotificationRepository
	ctx     context.Context
	base    time.Time
}

func (s *notificationStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.newRepo()
	s.base = time.Now().UTC().Truncate(time.Millisecond)
}

func (s *notificationStoreSuite) seed(vendorID string, createdAt time.Time, read bool) *models.Notification {
	data, err := models.EncodePayload(models.KYCRejectedData{Reason: "seed"})
	s.Require().NoError(err)

	n := &models.Notification{
		VendorID:  vendorID,
		Type:      models.TypeKYCRejected,
		Title:     "KYC Verification Rejected",
		Message:   "seed",
		Data:      data,
		Priority:  models.PriorityHigh,
		IsRead:    read,
		CreatedAt: createdAt,
	}
	s.Require().NoError(s.repo.Create(s.ctx, n))
	return n
}

func (s *notificationStoreSuite) TestCreateAssignsIDAndTimestamp() {
	data, _ := models.EncodePayload(models.SystemAlertData{})
	n := &models.Notification{
		VendorID: "V1",
		Type:     models.TypeSystemAlert,
		Title:    "Maintenance",
		Message:  "Tonight",
		Data:     data,
		Priority: models.PriorityLow,
	}

	s.Require().NoError(s.repo.Create(s.ctx, n))
	s.NotEmpty(n.ID)
	s.False(n.CreatedAt.IsZero())
	s.False(n.IsRead)
}

func (s *notificationStoreSuite) TestListIsTenantScoped() {
	for i := 0; i < 3; i++ {
		s.seed("V1", s.base.Add(time.Duration(i)*time.Minute), false)
		s.seed("V2", s.base.Add(time.Duration(i)*time.Minute), i%2 == 0)
	}

	for _, unreadOnly := range []bool{false, true} {
		for limit := 1; limit <= 4; limit++ {
			for page := 1; page <= 4; page++ {
				list, _, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", UnreadOnly: unreadOnly, Page: page, Limit: limit})
				s.Require().NoError(err)
				for _, n := range list {
					s.Equal("V1", n.VendorID)
				}
			}
		}
	}
}

func (s *notificationStoreSuite) TestListPaginatesNewestFirst() {
	var created []*models.Notification
	for i := 0; i < 7; i++ {
		created = append(created, s.seed("V1", s.base.Add(time.Duration(i)*time.Second), false))
	}

	page2, total, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", Page: 2, Limit: 3})
	s.Require().NoError(err)
	s.EqualValues(7, total)
	s.Require().Len(page2, 3)
	// newest first: indexes 6,5,4 on page 1, then 3,2,1
	s.Equal(created[3].ID, page2[0].ID)
	s.Equal(created[2].ID, page2[1].ID)
	s.Equal(created[1].ID, page2[2].ID)

	page3, _, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", Page: 3, Limit: 3})
	s.Require().NoError(err)
	s.Require().Len(page3, 1)
	s.Equal(created[0].ID, page3[0].ID)

	beyond, total, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", Page: 9, Limit: 3})
	s.Require().NoError(err)
	s.Empty(beyond)
	s.EqualValues(7, total)
}

func (s *notificationStoreSuite) TestUnreadFilterAndCount() {
	s.seed("V1", s.base, false)
	s.seed("V1", s.base.Add(time.Second), true)
	s.seed("V2", s.base, false)

	list, total, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", UnreadOnly: true, Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Len(list, 1)

	count, err := s.repo.CountUnread(s.ctx, "V1")
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *notificationStoreSuite) TestMarkAsReadChecksOwnership() {
	n := s.seed("V1", s.base, false)

	_, err := s.repo.MarkAsRead(s.ctx, n.ID, "V2")
	s.ErrorIs(err, ErrNotificationNotFound)

	updated, err := s.repo.MarkAsRead(s.ctx, n.ID, "V1")
	s.Require().NoError(err)
	s.True(updated.IsRead)

	again, err := s.repo.MarkAsRead(s.ctx, n.ID, "V1")
	s.Require().NoError(err)
	s.True(again.IsRead)
}

func (s *notificationStoreSuite) TestMarkAllAsReadIsIdempotent() {
	for i := 0; i < 5; i++ {
		s.seed("V1", s.base.Add(time.Duration(i)*time.Second), false)
	}
	s.seed("V1", s.base, true)
	s.seed("V1", s.base, true)
	s.seed("V2", s.base, false)

	affected, err := s.repo.MarkAllAsRead(s.ctx, "V1")
	s.Require().NoError(err)
	s.EqualValues(5, affected)

	affected, err = s.repo.MarkAllAsRead(s.ctx, "V1")
	s.Require().NoError(err)
	s.EqualValues(0, affected)

	other, err := s.repo.CountUnread(s.ctx, "V2")
	s.Require().NoError(err)
	s.EqualValues(1, other)
}

func (s *notificationStoreSuite) TestConcurrentMarkAsReadStaysRead() {
	n := s.seed("V1", s.base, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.repo.MarkAsRead(s.ctx, n.ID, "V1")
		}()
	}
	wg.Wait()

	unread, err := s.repo.CountUnread(s.ctx, "V1")
	s.Require().NoError(err)
	s.Zero(unread)
}

func (s *notificationStoreSuite) TestDeleteIsScoped() {
	n := s.seed("V1", s.base, false)

	s.ErrorIs(s.repo.Delete(s.ctx, n.ID, "V2"), ErrNotificationNotFound)
	s.NoError(s.repo.Delete(s.ctx, n.ID, "V1"))
	s.ErrorIs(s.repo.Delete(s.ctx, n.ID, "V1"), ErrNotificationNotFound)
}

func (s *notificationStoreSuite) TestMalformedIDIsNotFound() {
	_, err := s.repo.MarkAsRead(s.ctx, "not-a-uuid", "V1")
	s.ErrorIs(err, ErrNotificationNotFound)
	s.ErrorIs(s.repo.Delete(s.ctx, "not-a-uuid", "V1"), ErrNotificationNotFound)
}

func (s *notificationStoreSuite) TestDeleteReadBefore() {
	cutoff := s.base.Add(-30 * 24 * time.Hour)
	oldRead := s.seed("V1", s.base.Add(-31*24*time.Hour), true)
	oldUnread := s.seed("V1", s.base.Add(-60*24*time.Hour), false)
	recentRead := s.seed("V1", s.base.Add(-10*24*time.Hour), true)

	deleted, err := s.repo.DeleteReadBefore(s.ctx, cutoff)
	s.Require().NoError(err)
	s.EqualValues(1, deleted)

	remaining, _, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V1", Page: 1, Limit: 10})
	s.Require().NoError(err)
	ids := make(map[string]bool)
	for _, n := range remaining {
		ids[n.ID] = true
	}
	s.False(ids[oldRead.ID], "old read notification should be swept")
	s.True(ids[oldUnread.ID], "unread notifications are never swept")
	s.True(ids[recentRead.ID], "recent read notifications are kept")
}

func (s *notificationStoreSuite) TestPayloadSurvivesStorage() {
	payload := models.NewOrderData{OrderID: "O1", OrderNumber: "ORD-0001", TotalAmount: 40, ItemCount: 2, BuyerName: "Customer"}
	data, err := models.EncodePayload(payload)
	s.Require().NoError(err)

	n := &models.Notification{VendorID: "V9", Type: models.TypeNewOrder, Title: "t", Message: "m", Data: data, Priority: models.PriorityHigh}
	s.Require().NoError(s.repo.Create(s.ctx, n))

	list, _, err := s.repo.List(s.ctx, NotificationFilter{VendorID: "V9", Page: 1, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	decoded, err := list[0].Payload()
	s.Require().NoError(err)
	s.Equal(payload, decoded, fmt.Sprintf("stored data %s", list[0].Data))
}
