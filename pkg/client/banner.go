package client

import (
	"sync"
	"time"
)

// DefaultBannerTTL 错误提示自动消失的时间
const DefaultBannerTTL = 3 * time.Second

// Banner 自动清除的错误提示，新消息会重置计时
type Banner struct {
	ttl time.Duration

	mu    sync.Mutex
	msg   string
	seq   uint64
	timer *time.Timer
}

// NewBanner ttl <= 0 时使用 DefaultBannerTTL
func NewBanner(ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}
	return &Banner{ttl: ttl}
}

// Show 展示消息，ttl 后自动清空
func (b *Banner) Show(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	seq := b.seq
	b.msg = msg
	b.timer = time.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.seq == seq {
			b.msg = ""
			b.timer = nil
		}
	})
}

// Message 当前消息，已过期时为空
func (b *Banner) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}

// Clear 立即清空
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
	b.msg = ""
}
