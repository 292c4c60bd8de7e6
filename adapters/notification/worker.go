package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redisAdapter "auctionhub/adapters/redis"
)

type workerOptions struct {
	logger      *slog.Logger
	sendTimeout time.Duration
}

type WorkerOption func(*workerOptions)

// WithWorkerLogger 設置日誌記錄器
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		o.logger = logger
	}
}

// WithWorkerSendTimeout 設置單封通知寄送的逾時
func WithWorkerSendTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		o.sendTimeout = d
	}
}

// Worker 從通知 stream 讀取訊息並寄出信件
// 寄送失敗的訊息會連同錯誤移到死信 stream
type Worker struct {
	consumer redisAdapter.IGroupConsumer[Message]
	mailer   Mailer
	logger   *slog.Logger
	options  workerOptions

	mu         sync.Mutex
	wg         sync.WaitGroup
	started    bool
	cancelFunc context.CancelFunc
}

func NewWorker(consumer redisAdapter.IGroupConsumer[Message], mailer Mailer, opts ...WorkerOption) (*Worker, error) {
	if consumer == nil || mailer == nil {
		return nil, errors.New("consumer and mailer cannot be nil")
	}
	options := workerOptions{
		logger:      slog.Default(),
		sendTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Worker{
		consumer: consumer,
		mailer:   mailer,
		logger:   options.logger.With(slog.String("caller", "NotificationWorker")),
		options:  options,
	}, nil
}

func (w *Worker) Start() error {
	const op = "Worker.Start"
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := w.consumer.Start(); err != nil {
		return fmt.Errorf("[%s] Fail to start consumer, err=%w", op, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFunc = cancel
	w.started = true

	w.logger.Info("Start notification worker")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.logger.Info("Notification worker stopped")
		ch := w.consumer.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				w.handle(ctx, msg)
			}
		}
	}()
	return nil
}

func (w *Worker) handle(ctx context.Context, msg *redisAdapter.Message[Message]) {
	logger := w.logger.With(slog.String("messageID", msg.ID), slog.String("kind", string(msg.Data.Kind)))
	if err := w.deliver(ctx, msg.Data); err != nil {
		logger.Error("Fail to deliver notification", slog.Any("error", err))
		if err := msg.Fail(ctx, err); err != nil {
			logger.Error("Fail to fail message", slog.Any("error", err))
		}
		return
	}
	if err := msg.Done(ctx); err != nil {
		logger.Error("Deliver success but fail to done message", slog.Any("error", err))
		return
	}
	logger.Debug("Notification delivered")
}

func (w *Worker) deliver(ctx context.Context, msg Message) error {
	envelopes, err := Render(msg)
	if err != nil {
		return err
	}
	for _, envelope := range envelopes {
		sendCtx, cancel := context.WithTimeout(ctx, w.options.sendTimeout)
		err := w.mailer.Send(sendCtx, envelope)
		cancel()
		if err != nil {
			return fmt.Errorf("fail to send mail to %s, err=%w", envelope.To, err)
		}
	}
	return nil
}

func (w *Worker) Close() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancelFunc()
	w.mu.Unlock()

	if err := w.consumer.Close(); err != nil {
		w.logger.Error("Fail to close consumer", slog.Any("error", err))
	}
	w.wg.Wait()
}
