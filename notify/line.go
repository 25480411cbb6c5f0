package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LineSender pushes to each target id, or broadcasts to all followers when no
// targets are configured.
type LineSender struct {
	token    string
	targets  []string
	endpoint string
	client   *http.Client
}

func NewLineSender(token string, targets []string, timeout time.Duration) *LineSender {
	return &LineSender{
		token:   token,
		targets: targets,
		client:  &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the sender at another API host (tests).
func (s *LineSender) WithBaseURL(url string) *LineSender {
	s.endpoint = url
	return s
}

func (s *LineSender) Name() string { return "line" }

// api builds a client for one send. The SDK keeps its context on the client,
// so concurrent sends must not share one.
func (s *LineSender) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	opts := []messaging_api.MessagingApiAPIOption{messaging_api.WithHTTPClient(s.client)}
	if s.endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(s.endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(s.token, opts...)
	if err != nil {
		return nil, fmt.Errorf("init line client: %w", err)
	}
	return api.WithContext(ctx), nil
}

func (s *LineSender) Send(ctx context.Context, msg Message) error {
	api, err := s.api(ctx)
	if err != nil {
		return err
	}
	messages := []messaging_api.MessageInterface{messaging_api.TextMessage{Text: msg.Text}}

	// a fresh retry key per call lets LINE drop duplicates of that one call
	if len(s.targets) == 0 {
		if _, err := api.Broadcast(&messaging_api.BroadcastRequest{Messages: messages}, uuid.NewString()); err != nil {
			return fmt.Errorf("line broadcast: %w", err)
		}
		return nil
	}
	var errs []error
	for _, to := range s.targets {
		req := &messaging_api.PushMessageRequest{To: to, Messages: messages}
		if _, err := api.PushMessage(req, uuid.NewString()); err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}
