// Package safe_close 提供多组件统一的优雅关闭控制
// 各组件通过 Attach 注册关闭回调，任意一处 SendCloseSignal 后全部收到信号
package safe_close

import (
	"sync"
)

// SafeClose 优雅关闭控制器
type SafeClose struct {
	mu          sync.Mutex
	closeSignal chan struct{}
	closed      bool
	err         error
	wg          sync.WaitGroup
}

// NewSafeClose 创建关闭控制器
func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach registers a component lifecycle goroutine
// Attach 注册一个组件生命周期协程
// f 必须在退出前调用 done()，并监听 closeSignal 以感知关闭
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal broadcasts the close signal to all attached components
// SendCloseSignal 广播关闭信号，首个携带的 err 会被记录
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// ReceiveCloseSignal 获取关闭信号通道
func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until every attached component has called done()
// WaitClosed 阻塞等待全部组件退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
