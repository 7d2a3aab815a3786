package myqueue

import (
	"context"
	"fmt"
	"os"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	grpcCodes "google.golang.org/grpc/codes"
	grpcStatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type gcloudTaskQueue struct {
	client *cloudtasks.Client
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudQueue
	}
}

func newGcloudQueue(c context.Context) (TaskQueuer, func(), error) {
	cloudTaskClient, err := cloudtasks.NewClient(c)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating cloudtask-client: %w", err)
	}
	return &gcloudTaskQueue{
			client: cloudTaskClient,
		}, func() {
			cloudTaskClient.Close()
		}, nil
}

func (q *gcloudTaskQueue) Enqueue(c context.Context, task Task) error {
	request := &taskspb.CreateTaskRequest{
		Parent: composeQueueName(),
		Task: &taskspb.Task{
			Name: composeTaskName(task.UID), // de-duplicate
			MessageType: &taskspb.Task_AppEngineHttpRequest{
				AppEngineHttpRequest: &taskspb.AppEngineHttpRequest{
					HttpMethod:  taskspb.HttpMethod_PUT,
					RelativeUri: task.WebhookURLPath,
					Body:        task.Payload,
				},
			},
		},
	}
	if task.Delay > 0 {
		request.Task.ScheduleTime = timestamppb.New(time.Now().Add(task.Delay))
	}

	_, err := q.client.CreateTask(c, request)
	if err != nil {
		rsp, ok := grpcStatus.FromError(err)
		if ok && rsp.Code() == grpcCodes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("error submitting task %s to queue: %w", task.UID, err)
	}
	return nil
}

func composeQueueName() string {
	queueName := os.Getenv("QUEUE_NAME")
	if queueName == "" {
		queueName = "default"
	}
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("LOCATION_ID"), queueName)
}

func composeTaskName(taskUID string) string {
	return fmt.Sprintf("%s/tasks/%s", composeQueueName(), taskUID)
}

// IsLastAttempt returns the dispatch count of the task and the max attempts of its queue (-1 when unknown).
func (q *gcloudTaskQueue) IsLastAttempt(c context.Context, taskUID string) (int32, int32) {
	var maxRetries int32 = -1

	queue, err := q.client.GetQueue(c, &taskspb.GetQueueRequest{Name: composeQueueName()})
	if err != nil {
		return 0, maxRetries
	}
	if queue.RetryConfig != nil {
		maxRetries = queue.RetryConfig.MaxAttempts
	}

	task, err := q.client.GetTask(c, &taskspb.GetTaskRequest{Name: composeTaskName(taskUID)})
	if err != nil {
		return 0, maxRetries
	}
	return task.DispatchCount, maxRetries
}
