// internal/audio/device.go
package audio

// Session 一次正在进行的播放
type Session interface {
	// Done 在播放自然结束或出错时关闭
	Done() <-chan struct{}

	// Stop 立即停止播放并释放输出资源，可重复调用
	Stop()
}

// Device 音频输出设备
// 实现方负责采样率与声道数的匹配，调用方只提交归一化浮点采样
type Device interface {
	// Play 开始异步播放一段采样，立即返回会话句柄
	Play(samples []float32) (Session, error)
}

// NoopDevice 无声设备，音频硬件不可用时的降级实现
// 会话在创建后立即结束
type NoopDevice struct{}

func (NoopDevice) Play(samples []float32) (Session, error) {
	done := make(chan struct{})
	close(done)
	return noopSession{done: done}, nil
}

type noopSession struct {
	done chan struct{}
}

func (s noopSession) Done() <-chan struct{} { return s.done }
func (s noopSession) Stop()                 {}
