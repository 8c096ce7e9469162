package sse

import (
	"context"
	"encoding/json"

	"I2I/models"
)

// JobTopic 生成任务事件所在的 topic
const JobTopic = "generate"

// Message 一条 SSE 事件
type Message struct {
	Event string
	Data  []byte
}

// Hub 管理基于 topic 的 SSE 订阅者。
//
// topics 只在 Run 所在的 goroutine 中读写，外部通过 subscribe/unsubscribe/publish
// 三个通道提交操作，因此不需要加锁。
type Hub struct {
	topics map[string]map[chan Message]struct{}

	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan topicMessage
	done        chan struct{}
}

type subscription struct {
	ch    chan Message
	topic string
}

type topicMessage struct {
	topic string
	msg   Message
}

// NewHub publish 通道带 100 的缓冲，吸收短时突发
func NewHub() *Hub {
	return &Hub{
		topics:      make(map[string]map[chan Message]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan topicMessage, 100),
		done:        make(chan struct{}),
	}
}

// Run 事件循环，ctx 结束后返回
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.subscribe:
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan Message]struct{})
				h.topics[s.topic] = subs
			}
			subs[s.ch] = struct{}{}
		case s := <-h.unsubscribe:
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
		case tm := <-h.publish:
			for ch := range h.topics[tm.topic] {
				select {
				case ch <- tm.msg:
				default:
					// 客户端读得太慢，丢弃
				}
			}
		}
	}
}

// Publish 非阻塞地投递消息；缓冲满或 hub 已停止时丢弃并返回 false
func (h *Hub) Publish(topic string, msg Message) bool {
	select {
	case h.publish <- topicMessage{topic: topic, msg: msg}:
		return true
	case <-h.done:
		return false
	default:
		return false
	}
}

// Subscribe ch 由调用方创建并负责关闭，Hub 不会关闭它
func (h *Hub) Subscribe(ch chan Message, topic string) bool {
	select {
	case h.subscribe <- subscription{ch: ch, topic: topic}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unsubscribe(ch chan Message, topic string) {
	select {
	case h.unsubscribe <- subscription{ch: ch, topic: topic}:
	case <-h.done:
	}
}

// Record 把任务状态变化推送给 JobTopic 的订阅者
func (h *Hub) Record(_ context.Context, job models.GenerationJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	h.Publish(JobTopic, Message{Event: job.Status, Data: b})
	return nil
}
