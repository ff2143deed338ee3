package service

import (
	"context"
	"encoding/json"

	"hebelki-knowledge-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	// PublishJobReady wakes the worker for a job that just became claimable.
	// Delivery is best effort; the worker's poll loop covers lost wake-ups.
	PublishJobReady(ctx context.Context, jobId uuid.UUID) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishJobReady(ctx context.Context, jobId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishJobReadyMessage{JobId: jobId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.pubSub.Publish(ps.topicName, msg)
}
