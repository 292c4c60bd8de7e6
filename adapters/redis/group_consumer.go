package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeadLetterStream 回傳 stream 對應的死信 stream 名稱
func DeadLetterStream(stream string) string {
	return stream + ":dead-letter"
}

// Message 封裝消息和ack所需資料
type Message[T any] struct {
	Data T
	ID   string

	client *redis.Client
	done   bool
	stream string
	group  string
	raw    map[string]any
}

// Done 確認消息已處理完成
func (m *Message[T]) Done(ctx context.Context) error {
	const op = "Message.Done"
	if m.done {
		return nil
	}
	if err := m.client.XAck(ctx, m.stream, m.group, m.ID).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to ack message, err=%w", op, err)
	}
	m.done = true
	return nil
}

// Fail 將消息連同錯誤原因移到死信 stream 並確認
func (m *Message[T]) Fail(ctx context.Context, failErr error) error {
	const op = "Message.Fail"
	if m.done {
		return nil
	}

	values := make(map[string]any, len(m.raw)+1)
	for k, v := range m.raw {
		values[k] = v
	}
	values["error"] = failErr.Error()
	if err := m.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStream(m.stream),
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to move message to dead letter, err=%w", op, err)
	}
	if err := m.client.XAck(ctx, m.stream, m.group, m.ID).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to ack failed message, err=%w", op, err)
	}
	m.done = true
	return nil
}

type groupConsumerOptions[T any] struct {
	logger         *slog.Logger
	parseFunc      func(map[string]any) (T, error)
	bufferSize     int
	blockTimeout   time.Duration
	retryDelay     time.Duration
	mutex          IAutoRenewMutex
	strictOrdering bool // 嚴格順序模式
	createGroup    bool
}

type GroupConsumerOption[T any] func(*groupConsumerOptions[T])

// WithGroupConsumerLogger 設置日誌記錄器
func WithGroupConsumerLogger[T any](logger *slog.Logger) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.logger = logger
	}
}

// WithGroupConsumerParseFunc 設置消息解析函數
func WithGroupConsumerParseFunc[T any](fn func(map[string]any) (T, error)) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.parseFunc = fn
	}
}

// WithGroupConsumerBufferSize 設置下游channel的緩衝大小
func WithGroupConsumerBufferSize[T any](size int) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.bufferSize = size
	}
}

// WithGroupConsumerBlockTimeout 設置阻塞讀取超時時間
func WithGroupConsumerBlockTimeout[T any](d time.Duration) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.blockTimeout = d
	}
}

// WithGroupConsumerRetryDelay 設置和 Redis 通訊失敗後的等待時間
func WithGroupConsumerRetryDelay[T any](d time.Duration) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.retryDelay = d
	}
}

// WithGroupConsumerMutex 注入mutex (主要用於測試)
func WithGroupConsumerMutex[T any](mutex IAutoRenewMutex) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.mutex = mutex
	}
}

// WithGroupConsumerStrictOrdering 設置是否使用嚴格順序模式
// 嚴格順序模式下同一個 group 同時只有一個 consumer 在處理，並且會先處理 pending 訊息
func WithGroupConsumerStrictOrdering[T any](strict bool) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.strictOrdering = strict
	}
}

// WithGroupConsumerCreateGroup 設置啟動時是否建立 consumer group
func WithGroupConsumerCreateGroup[T any](create bool) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.createGroup = create
	}
}

// GroupConsumer 以 XREADGROUP 讀取 stream，同一個 group 內每筆訊息只會交給一個 consumer
type GroupConsumer[T any] struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	logger        *slog.Logger
	mutex         IAutoRenewMutex
	pendingMsgIds []string
	options       groupConsumerOptions[T]

	mu         sync.Mutex
	closed     bool
	downStream chan *Message[T]
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func NewGroupConsumer[T any](
	client *redis.Client,
	stream, group, consumer string,
	opts ...GroupConsumerOption[T],
) (*GroupConsumer[T], error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" || group == "" || consumer == "" {
		return nil, errors.New("stream, group and consumer cannot be empty")
	}

	// 默認選項
	options := groupConsumerOptions[T]{
		logger:       slog.Default(),
		parseFunc:    DefaultParseFromMessage[T],
		bufferSize:   1,
		blockTimeout: time.Second,
		retryDelay:   500 * time.Millisecond,
		createGroup:  true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	gc := &GroupConsumer[T]{
		logger: options.logger.With(
			slog.String("caller", "GroupConsumer"),
			slog.String("stream", stream),
			slog.String("group", group),
			slog.String("consumer", consumer)),
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		closed:   true,
		options:  options,
	}

	// 只在嚴格順序模式下設置mutex
	if options.strictOrdering {
		gc.mutex = options.mutex
		if gc.mutex == nil {
			gc.mutex = NewAutoRenewMutex(client, fmt.Sprintf("lock:%s:%s", stream, group), WithAutoRenewMutexSkipLockError(true))
		}
	}
	return gc, nil
}

// Start 建立 consumer group (如果需要) 並開始讀取
func (s *GroupConsumer[T]) Start() error {
	const op = "GroupConsumer.Start"
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		return nil
	}
	if s.options.createGroup {
		if err := s.ensureGroup(context.Background()); err != nil {
			return fmt.Errorf("[%s] Fail to create consumer group, err=%w", op, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.downStream = make(chan *Message[T], s.options.bufferSize)
	downStream := s.downStream
	s.cancelFunc = cancel
	s.closed = false
	s.logger.Info("starting group consumer")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("group consumer goroutine stopped")
		defer close(downStream)
		s.run(ctx, downStream)
	}()
	return nil
}

// ensureGroup 從 stream 開頭建立 group，啟動前寫入的訊息也會被處理
func (s *GroupConsumer[T]) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (s *GroupConsumer[T]) run(ctx context.Context, downStream chan<- *Message[T]) {
	for ctx.Err() == nil {
		workloadContext := ctx

		// 嚴格順序模式下先拿鎖，workloadContext 會在失去鎖時被取消
		if s.options.strictOrdering {
			var err error
			workloadContext, err = s.mutex.Lock(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("failed to acquire lock", slog.Any("error", err))
				s.wait(ctx)
				continue
			}
		}

		err := s.messagesWorkflow(workloadContext, downStream)
		if s.options.strictOrdering {
			if _, unlockErr := s.mutex.Unlock(); unlockErr != nil {
				s.logger.Warn("failed to release lock", slog.Any("error", unlockErr))
			}
		}
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			s.logger.Error("lock context cancelled, restarting group consumer")
			continue
		}
		s.logger.Error("error processing messages, restarting group consumer", slog.Any("error", err))
		s.wait(ctx)
	}
}

func (s *GroupConsumer[T]) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.options.retryDelay):
	}
}

// Subscribe 訂閱Stream，需在 Start 之後呼叫
func (s *GroupConsumer[T]) Subscribe() <-chan *Message[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downStream
}

func (s *GroupConsumer[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.logger.Info("closing group consumer")
	s.closed = true
	s.cancelFunc()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("group consumer closed gracefully")
	return nil
}

// messagesWorkflow 持續讀取訊息直到 ctx 結束或無法處理的錯誤
func (s *GroupConsumer[T]) messagesWorkflow(ctx context.Context, downStream chan<- *Message[T]) error {
	if s.options.strictOrdering {
		if err := s.fetchPendingMessageIds(ctx); err != nil {
			return err
		}
	}
	for {
		message, err := s.fetchNextMessage(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return context.Canceled
			}
			// 通訊異常，稍等後重試
			s.logger.Error("fetch message error", slog.Any("error", err))
			s.wait(ctx)
			continue
		}

		data, err := s.options.parseFunc(message.Values)
		if err != nil {
			// 解析失敗重試也不會成功，移到死信後繼續
			s.logger.Error("failed to parse message", slog.String("messageId", message.ID), slog.Any("error", err))
			if dlErr := s.moveToDeadLetter(ctx, message, err); dlErr != nil {
				// 移動失敗時訊息會留在 pending，嚴格順序模式下一輪會優先處理
				return dlErr
			}
			continue
		}

		msg := &Message[T]{
			Data:   data,
			ID:     message.ID,
			client: s.client,
			stream: s.stream,
			group:  s.group,
			raw:    message.Values,
		}
		select {
		case <-ctx.Done():
			return context.Canceled
		case downStream <- msg:
		}
	}
}

func (s *GroupConsumer[T]) fetchPendingMessageIds(ctx context.Context) error {
	const pageSize = 100
	s.pendingMsgIds = s.pendingMsgIds[:0]
	start := "-"

	for {
		pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: s.stream,
			Group:  s.group,
			Start:  start,
			End:    "+",
			Count:  pageSize,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return fmt.Errorf("error getting pending messages: %w", err)
		}
		for _, p := range pending {
			s.pendingMsgIds = append(s.pendingMsgIds, p.ID)
		}
		if len(pending) < pageSize {
			break
		}
		// 下一頁從最後一筆之後開始
		start = "(" + pending[len(pending)-1].ID
	}

	s.logger.Info("fetched pending message IDs", slog.Int("count", len(s.pendingMsgIds)))
	return nil
}

func (s *GroupConsumer[T]) fetchNextMessage(ctx context.Context) (redis.XMessage, error) {
	if len(s.pendingMsgIds) > 0 {
		id := s.pendingMsgIds[0]
		s.pendingMsgIds = s.pendingMsgIds[1:]
		messages, err := s.client.XRangeN(ctx, s.stream, id, id, 1).Result()
		if err != nil {
			return redis.XMessage{}, err
		}
		if len(messages) == 0 {
			// 訊息已經被裁切掉，直接確認
			s.client.XAck(ctx, s.stream, s.group, id)
			return redis.XMessage{}, redis.Nil
		}
		return messages[0], nil
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    1,
		Block:    s.options.blockTimeout,
	}).Result()
	if err != nil {
		return redis.XMessage{}, err
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return redis.XMessage{}, redis.Nil
	}
	return streams[0].Messages[0], nil
}

func (s *GroupConsumer[T]) moveToDeadLetter(ctx context.Context, message redis.XMessage, cause error) error {
	values := make(map[string]any, len(message.Values)+1)
	for k, v := range message.Values {
		values[k] = v
	}
	values["error"] = cause.Error()
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStream(s.stream),
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to move message to dead letter queue: %w", err)
	}
	return s.client.XAck(ctx, s.stream, s.group, message.ID).Err()
}
