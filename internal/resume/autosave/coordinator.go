// Package autosave 把编辑器的高频字段编辑合并为低频的持久化调用。
//
// 每个编辑会话持有一个 Coordinator：编辑立即作用于本地文档（乐观更新），
// 同时累积到待发送补丁中；防抖计时器到期后一次性发送。保存按发出顺序串行执行，
// 只有在期间没有新编辑时，服务端返回的规范文档才会覆盖本地文档。
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"resumeai/internal/errcode"
	"resumeai/internal/resume"
)

// DefaultDelay 是编辑停止后触发保存的等待时间。
const DefaultDelay = time.Second

// Status 是会话的保存状态。
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSaving  Status = "saving"
	StatusUnsaved Status = "unsaved"
)

// ErrReauthenticate 表示保存因身份失效被拒绝，调用方应引导用户重新登录。
var ErrReauthenticate = errors.New("autosave: session expired")

// Saver 持久化一次合并后的补丁并返回规范文档。
type Saver interface {
	Save(ctx context.Context, patch resume.Patch) (resume.Resume, error)
}

// SaverFunc 让普通函数满足 Saver。
type SaverFunc func(ctx context.Context, patch resume.Patch) (resume.Resume, error)

func (f SaverFunc) Save(ctx context.Context, patch resume.Patch) (resume.Resume, error) {
	return f(ctx, patch)
}

// Event 在状态变化时通知监听者。Err 仅在保存失败时非空。
type Event struct {
	Status Status
	Err    error
}

type Option func(*Coordinator)

func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithListener 注册状态监听。事件按状态变化的先后顺序串行投递，
// 可能在计时器协程上执行；监听者可以回调 Coordinator 的方法。
func WithListener(fn func(Event)) Option {
	return func(c *Coordinator) { c.listener = fn }
}

// WithSaveTimeout 限制计时器触发的后台保存耗时。
func WithSaveTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.saveTimeout = d }
}

type Coordinator struct {
	saver       Saver
	delay       time.Duration
	saveTimeout time.Duration
	listener    func(Event)

	// sendMu 保证同一会话同一时刻只有一个保存在途。
	sendMu sync.Mutex

	mu         sync.Mutex
	doc        resume.Resume
	pending    resume.Patch
	generation uint64
	timer      *time.Timer
	status     Status
	lastErr    error
	closed     bool

	// events 在 mu 下按状态变化顺序入队，由 deliver 串行投递。
	events     []Event
	delivering bool
}

// New 以已加载的规范文档开始一个编辑会话。
func New(initial resume.Resume, saver Saver, opts ...Option) *Coordinator {
	c := &Coordinator{
		saver:  saver,
		delay:  DefaultDelay,
		doc:    initial.Clone(),
		status: StatusSaved,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Edit 立即把补丁应用到本地文档，并重新开始防抖计时。
func (c *Coordinator) Edit(p resume.Patch) {
	if p.IsEmpty() {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.doc = resume.Apply(c.doc, p)
	c.pending = resume.Merge(c.pending, p)
	c.generation++
	c.status = StatusUnsaved
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
	c.record(Event{Status: StatusUnsaved})
	c.mu.Unlock()

	c.deliver()
}

// Flush 立即发送待保存的补丁，用于离开编辑页之前。
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	return c.save(ctx)
}

// Close 放弃尚未发送的编辑并停止计时器。已在途的保存结果将被忽略。
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.pending = resume.Patch{}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Document 返回本地文档的副本（包含尚未保存的编辑）。
func (c *Coordinator) Document() resume.Resume {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Coordinator) fire() {
	ctx := context.Background()
	if c.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.saveTimeout)
		defer cancel()
	}
	_ = c.save(ctx)
}

func (c *Coordinator) save(ctx context.Context) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.closed || c.pending.IsEmpty() {
		c.mu.Unlock()
		return nil
	}
	patch := c.pending
	c.pending = resume.Patch{}
	sentGeneration := c.generation
	c.status = StatusSaving
	c.record(Event{Status: StatusSaving})
	c.mu.Unlock()
	c.deliver()

	saved, err := c.saver.Save(ctx, patch)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		// 失败的补丁回到待发送队列，期间到达的新编辑优先。
		c.pending = resume.Merge(patch, c.pending)
		c.status = StatusUnsaved
		c.lastErr = classify(err)
		reported := c.lastErr
		c.record(Event{Status: StatusUnsaved, Err: reported})
		c.mu.Unlock()
		c.deliver()
		return reported
	}

	c.lastErr = nil
	if c.generation == sentGeneration {
		c.doc = saved.Clone()
		c.status = StatusSaved
	} else {
		c.status = StatusUnsaved
	}
	c.record(Event{Status: c.status})
	c.mu.Unlock()
	c.deliver()
	return nil
}

// record 必须在持有 mu 时调用。
func (c *Coordinator) record(ev Event) {
	if c.listener != nil {
		c.events = append(c.events, ev)
	}
}

// deliver 投递已入队的事件。已有协程在投递时直接返回，由该协程接着投递新事件。
func (c *Coordinator) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		c.mu.Unlock()
		c.listener(ev)
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func classify(err error) error {
	if errors.Is(err, errcode.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", ErrReauthenticate, err)
	}
	return fmt.Errorf("autosave: %w", err)
}
