package notify

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	log "github.com/sirupsen/logrus"
)

// RedisPublisher publishes each notification as JSON on a per-session
// channel named "<prefix>:<session>".
type RedisPublisher struct {
	client rueidis.Client
	prefix string
	log    *log.Entry
}

func NewRedisPublisher(client rueidis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		prefix: prefix,
		log:    log.WithField("component", "notify.redis"),
	}
}

func (p *RedisPublisher) Notify(ctx context.Context, n Notification) {
	payload, err := encode(n)
	if err != nil {
		p.log.WithError(err).Warn("failed to encode notification")
		return
	}

	cmd := p.client.B().Publish().Channel(ChannelFor(p.prefix, n.Session)).Message(payload).Build()
	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		p.log.WithError(err).WithField("session", n.Session).Warn("failed to publish notification")
	}
}

func ChannelFor(prefix, session string) string {
	return prefix + ":" + session
}

func encode(n Notification) (string, error) {
	return sonic.ConfigStd.MarshalToString(n)
}
