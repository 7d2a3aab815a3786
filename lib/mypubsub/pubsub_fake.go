package mypubsub

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/MarcGrol/checkoutflow/lib/myevents"
	"github.com/MarcGrol/checkoutflow/lib/myhttpclient"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
)

// FakePubSub keeps published messages in memory, per topic.
// With a sender it pushes each message to the subscribed endpoint, like a push subscription.
type FakePubSub struct {
	sync.Mutex
	Topics    map[string][]string
	Endpoints map[string]string
	sender    myhttpclient.HTTPSender
	logger    mylog.Logger
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakePubSub
	}
}

func newFakePubSub(c context.Context) (PubSub, func(), error) {
	return NewFake(), func() {}, nil
}

func NewFake() *FakePubSub {
	return &FakePubSub{
		Topics:    map[string][]string{},
		Endpoints: map[string]string{},
	}
}

func (ps *FakePubSub) WithDelivery(sender myhttpclient.HTTPSender) *FakePubSub {
	ps.sender = sender
	ps.logger = mylog.New("fakePubSub")
	return ps
}

func (ps *FakePubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	ps.Lock()
	defer ps.Unlock()

	ps.Endpoints[topic] = urlToPostTo
	return nil
}

func (ps *FakePubSub) CreateTopic(c context.Context, topic string) error {
	ps.Lock()
	defer ps.Unlock()

	if _, exists := ps.Topics[topic]; !exists {
		ps.Topics[topic] = []string{}
	}
	return nil
}

func (ps *FakePubSub) Publish(c context.Context, topic string, data string) error {
	ps.Lock()
	defer ps.Unlock()

	ps.Topics[topic] = append(ps.Topics[topic], data)

	endpoint, subscribed := ps.Endpoints[topic]
	if ps.sender != nil && subscribed {
		body, err := json.Marshal(myevents.PushRequest{
			Message:      myevents.PushMessage{Data: []byte(data)},
			Subscription: topic,
		})
		if err != nil {
			return err
		}
		go ps.push(context.WithoutCancel(c), endpoint, body)
	}
	return nil
}

func (ps *FakePubSub) push(c context.Context, endpoint string, body []byte) {
	status, _, err := ps.sender.Send(c, http.MethodPost, endpoint, body)
	if err != nil || status >= http.StatusMultipleChoices {
		ps.logger.Log(c, "", mylog.SeverityWarn, "Error pushing to %s (status %d): %v", endpoint, status, err)
	}
}

func (ps *FakePubSub) Published(topic string) []string {
	ps.Lock()
	defer ps.Unlock()

	return append([]string{}, ps.Topics[topic]...)
}
