package myqueue

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/MarcGrol/checkoutflow/lib/myhttpclient"
	"github.com/MarcGrol/checkoutflow/lib/mylog"
)

// FakeTaskQueue remembers enqueued tasks and drops duplicates by uid, like cloud-tasks does.
// With delivery enabled it also calls the webhook of each task on the local server.
type FakeTaskQueue struct {
	sync.Mutex
	Tasks   []Task
	baseURL string
	sender  myhttpclient.HTTPSender
	logger  mylog.Logger
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakeQueue
	}
}

func newFakeQueue(c context.Context) (TaskQueuer, func(), error) {
	return NewFake(), func() {}, nil
}

func NewFake() *FakeTaskQueue {
	return &FakeTaskQueue{}
}

func (q *FakeTaskQueue) WithDelivery(baseURL string, sender myhttpclient.HTTPSender) *FakeTaskQueue {
	q.baseURL = baseURL
	q.sender = sender
	q.logger = mylog.New("fakeTaskQueue")
	return q
}

func (q *FakeTaskQueue) Enqueue(c context.Context, task Task) error {
	q.Lock()
	defer q.Unlock()

	for _, t := range q.Tasks {
		if t.UID == task.UID {
			return nil
		}
	}
	q.Tasks = append(q.Tasks, task)

	if q.sender != nil {
		go q.deliver(context.WithoutCancel(c), task)
	}
	return nil
}

func (q *FakeTaskQueue) deliver(c context.Context, task Task) {
	time.Sleep(task.Delay)

	status, _, err := q.sender.Send(c, http.MethodPut, q.baseURL+task.WebhookURLPath, task.Payload)
	if err != nil || status >= http.StatusMultipleChoices {
		q.logger.Log(c, task.UID, mylog.SeverityWarn, "Error delivering task %s (status %d): %v", task.WebhookURLPath, status, err)
	}
}

func (q *FakeTaskQueue) IsLastAttempt(c context.Context, taskUID string) (int32, int32) {
	return 0, 0
}

func (q *FakeTaskQueue) Enqueued() []Task {
	q.Lock()
	defer q.Unlock()

	return append([]Task{}, q.Tasks...)
}
