package events

import (
	"context"
	"errors"
	"sync"
)

// MemoryPublisher 使用有界 channel 缓存事件，主要用于测试。
type MemoryPublisher struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewMemoryPublisher 创建内存发布器。
func NewMemoryPublisher(size int) *MemoryPublisher {
	if size <= 0 {
		size = 64
	}
	return &MemoryPublisher{ch: make(chan Event, size)}
}

// Publish 写入事件；缓冲区已满时直接丢弃并返回错误，不阻塞调用方。
func (p *MemoryPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("发布器已关闭")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.ch <- event:
		return nil
	default:
		return errors.New("事件缓冲区已满")
	}
}

// Events 返回只读事件通道。
func (p *MemoryPublisher) Events() <-chan Event {
	return p.ch
}

// Drain 取出当前缓存的全部事件。
func (p *MemoryPublisher) Drain() []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-p.ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Close 关闭发布器。
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		close(p.ch)
		p.closed = true
	}
	p.mu.Unlock()
	return nil
}
