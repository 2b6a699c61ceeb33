// internal/audio/oto.go
package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// 进程内共享一个oto上下文，重复创建会报错
var (
	otoCtx     *oto.Context
	otoInitErr error
	otoOnce    sync.Once
)

// OtoDevice 基于oto的默认音频输出设备（24kHz 单声道 float32）
type OtoDevice struct{}

// NewOtoDevice 创建设备并初始化底层音频上下文
func NewOtoDevice() (*OtoDevice, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   DefaultSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoInitErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})

	if otoInitErr != nil {
		return nil, fmt.Errorf("初始化音频设备失败: %w", otoInitErr)
	}
	return &OtoDevice{}, nil
}

// Play 异步播放一段采样
func (d *OtoDevice) Play(samples []float32) (Session, error) {
	if otoCtx == nil {
		return nil, fmt.Errorf("音频上下文未初始化")
	}

	player := otoCtx.NewPlayer(bytes.NewReader(EncodeFloat32LE(samples)))
	session := &otoSession{
		player: player,
		done:   make(chan struct{}),
	}

	player.Play()
	go session.watch()

	return session, nil
}

// otoSession 包装一个oto播放器
type otoSession struct {
	player   *oto.Player
	done     chan struct{}
	stopOnce sync.Once
}

func (s *otoSession) Done() <-chan struct{} {
	return s.done
}

func (s *otoSession) Stop() {
	s.stopOnce.Do(func() {
		s.player.Close()
		close(s.done)
	})
}

// watch 轮询播放状态，自然结束时释放资源
func (s *otoSession) watch() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.player.IsPlaying() {
				s.Stop()
				return
			}
		}
	}
}
